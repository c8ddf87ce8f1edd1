package models

import "strings"

const (
	DefaultCategoryColor = "#6b7280"
	DefaultStatusColor   = "#facc15"
)

var categoryColors = map[IssueCategory]string{
	Infrastructure: "#fb923c",
	Environment:    "#22c55e",
	Safety:         "#ef4444",
	Utilities:      "#3b82f6",
	Governance:     "#a855f7",
	Transportation: "#06b6d4",
	Healthcare:     "#ec4899",
	Other:          "#6b7280",
}

var statusColors = map[IssueStatus]string{
	Pending:    "#facc15",
	Verified:   "#60a5fa",
	InProgress: "#c084fc",
	Resolved:   "#4ade80",
	Closed:     "#9ca3af",
}

var statusLabels = map[IssueStatus]string{
	Pending:    "Pending Review",
	Verified:   "Verified",
	InProgress: "In Progress",
	Resolved:   "Resolved",
	Closed:     "Closed",
}

// ChartPalette is cycled over category slices in the analytics view.
var ChartPalette = []string{
	"#06b6d4", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#f97316", "#ec4899", "#6b7280",
}

// CategoryColor returns the marker fill for a category, or the default for unknown values.
func CategoryColor(c IssueCategory) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return DefaultCategoryColor
}

// StatusColor returns the marker border for a status, or the default for unknown values.
func StatusColor(s IssueStatus) string {
	if color, ok := statusColors[s]; ok {
		return color
	}
	return DefaultStatusColor
}

func StatusLabel(s IssueStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

func CategoryLabel(c IssueCategory) string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// LegendEntry describes one row of a map legend.
type LegendEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// CategoryLegend lists every category with its marker fill.
func CategoryLegend() []LegendEntry {
	out := make([]LegendEntry, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, LegendEntry{Key: string(c), Label: CategoryLabel(c), Color: CategoryColor(c)})
	}
	return out
}

// StatusLegend lists every status with its marker border.
func StatusLegend() []LegendEntry {
	out := make([]LegendEntry, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, LegendEntry{Key: string(s), Label: StatusLabel(s), Color: StatusColor(s)})
	}
	return out
}
