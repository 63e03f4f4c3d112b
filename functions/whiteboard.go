package functions

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/inkboard-live/inkboard/board"
)

// DrawShapeFunctionDeclaration lets the model put primitives on the board
// beyond the auto-placed text rows.
func DrawShapeFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "draw_shape",
		Description: "Draw a shape on the shared whiteboard. Use it to sketch diagrams while explaining.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"shape": {
					Type:        genai.TypeString,
					Enum:        []string{"line", "rect", "circle", "arrow", "text"},
					Description: "Which primitive to draw",
				},
				"x": {Type: genai.TypeNumber, Description: "X of the anchor point, canvas pixels"},
				"y": {Type: genai.TypeNumber, Description: "Y of the anchor point, canvas pixels"},
				"endX": {
					Type:        genai.TypeNumber,
					Description: "X of the end point, for lines and arrows",
				},
				"endY": {
					Type:        genai.TypeNumber,
					Description: "Y of the end point, for lines and arrows",
				},
				"width":  {Type: genai.TypeNumber, Description: "Width, for rects"},
				"height": {Type: genai.TypeNumber, Description: "Height, for rects"},
				"radius": {Type: genai.TypeNumber, Description: "Radius, for circles"},
				"text":   {Type: genai.TypeString, Description: "Label content, for text"},
				"color":  {Type: genai.TypeString, Description: "CSS color, defaults to #333"},
			},
			Required: []string{"shape", "x", "y"},
		},
	}
}

// ClearBoardFunctionDeclaration lets the model wipe the board when it
// moves to a new topic or runs out of room.
func ClearBoardFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "clear_board",
		Description: "Erase everything on the shared whiteboard.",
	}
}

// WhiteboardTools bundles the declarations for a Live session.
func WhiteboardTools() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				DrawShapeFunctionDeclaration(),
				ClearBoardFunctionDeclaration(),
			},
		},
	}
}

// ParseDrawShape turns draw_shape arguments into a board command. The
// model is loose with types, so numbers are accepted as float64 only and
// missing optionals fall back to sensible defaults.
func ParseDrawShape(args map[string]any) (board.Command, error) {
	shape, _ := args["shape"].(string)
	var kind board.CommandKind
	switch shape {
	case "line":
		kind = board.KindLine
	case "rect":
		kind = board.KindRect
	case "circle":
		kind = board.KindCircle
	case "arrow":
		kind = board.KindArrow
	case "text":
		kind = board.KindText
	default:
		return board.Command{}, fmt.Errorf("unknown shape %q", shape)
	}

	x, okX := number(args["x"])
	y, okY := number(args["y"])
	if !okX || !okY {
		return board.Command{}, fmt.Errorf("shape %q missing anchor point", shape)
	}

	cmd := board.Command{
		Kind:     kind,
		Position: board.Point{X: x, Y: y},
		Color:    "#333",
	}
	if c, ok := args["color"].(string); ok && c != "" {
		cmd.Color = c
	}

	switch kind {
	case board.KindLine, board.KindArrow:
		ex, okEX := number(args["endX"])
		ey, okEY := number(args["endY"])
		if !okEX || !okEY {
			return board.Command{}, fmt.Errorf("shape %q missing end point", shape)
		}
		cmd.End = &board.Point{X: ex, Y: ey}
	case board.KindRect:
		cmd.Width, _ = number(args["width"])
		cmd.Height, _ = number(args["height"])
		if cmd.Width <= 0 || cmd.Height <= 0 {
			return board.Command{}, fmt.Errorf("rect needs positive width and height")
		}
	case board.KindCircle:
		cmd.Radius, _ = number(args["radius"])
		if cmd.Radius <= 0 {
			return board.Command{}, fmt.Errorf("circle needs a positive radius")
		}
	case board.KindText:
		text, _ := args["text"].(string)
		if text == "" {
			return board.Command{}, fmt.Errorf("text shape needs a label")
		}
		cmd.Text = text
		cmd.FontSize = 24
	}
	return cmd, nil
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
