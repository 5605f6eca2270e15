package ai

import "strings"

// ToolResult is the output of one capability handed to another capability.
type ToolResult struct {
	Capability Capability
	Output     string
}

// FrameToolResults appends tool outputs to input in the form the synthesis
// and routing instructions expect.
func FrameToolResults(input string, results ...ToolResult) string {
	var b strings.Builder
	b.WriteString(input)
	for _, r := range results {
		b.WriteString("\n\n<tool_result name=\"")
		b.WriteString(string(r.Capability))
		b.WriteString("\">\n")
		b.WriteString(strings.TrimSpace(r.Output))
		b.WriteString("\n</tool_result>")
	}
	return b.String()
}
