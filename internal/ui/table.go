package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

// Box drawing characters
const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
	leftT       = "├"
	rightT      = "┤"
	topT        = "┬"
	bottomT     = "┴"
	cross       = "┼"
)

// maxDetailsWidth caps the Details column of the plan.
const maxDetailsWidth = 40

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	addressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	publicStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Pending is shown in place of IDs that no provisioner has assigned yet.
const Pending = "(known after apply)"

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

// columnWidths sizes each column to its widest cell. A positive limits[i]
// caps column i.
func columnWidths(headers []string, rows [][]string, limits []int) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for i, limit := range limits {
		if limit > 0 && widths[i] > limit {
			widths[i] = max(limit, runewidth.StringWidth(headers[i]))
		}
	}
	return widths
}

func border(widths []int, left, middle, right string) string {
	var sb strings.Builder
	sb.WriteString(borderStyle.Render(left))
	for i, w := range widths {
		sb.WriteString(borderStyle.Render(strings.Repeat(horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(borderStyle.Render(middle))
		}
	}
	sb.WriteString(borderStyle.Render(right))
	sb.WriteString("\n")
	return sb.String()
}

// renderTable draws a boxed table; styles picks the style for each cell of
// a data row.
func renderTable(headers []string, rows [][]string, limits []int, styles func(row []string, column int) lipgloss.Style) string {
	widths := columnWidths(headers, rows, limits)

	var sb strings.Builder
	sb.WriteString(border(widths, topLeft, topT, topRight))

	sb.WriteString(borderStyle.Render(vertical))
	for i, h := range headers {
		sb.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
		sb.WriteString(borderStyle.Render(vertical))
	}
	sb.WriteString("\n")

	if len(rows) > 0 {
		sb.WriteString(border(widths, leftT, cross, rightT))
	}
	for _, row := range rows {
		sb.WriteString(borderStyle.Render(vertical))
		for i, cell := range row {
			sb.WriteString(styles(row, i).Render(" " + padRight(cell, widths[i]) + " "))
			sb.WriteString(borderStyle.Render(vertical))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(border(widths, bottomLeft, bottomT, bottomRight))
	return sb.String()
}

func describe(resource topology.Resource) string {
	attributes := resource.Attributes
	switch resource.Kind {
	case topology.KindNetwork:
		return attributes["address_block"]
	case topology.KindSubnet:
		visibility := "private"
		if attributes["is_public"] == "true" {
			visibility = "public"
		}
		details := attributes["address_block"] + " " + visibility
		if attributes["availability_zone"] != "" {
			details += " " + attributes["availability_zone"]
		}
		return details
	case topology.KindRoute:
		return fmt.Sprintf("%s -> %s", attributes["destination"], attributes["target"])
	case topology.KindRouteTableAssociation:
		return fmt.Sprintf("%s -> %s", topology.SubnetAddress(attributes["key"]), topology.RouteTableAddress)
	default:
		return strings.Join(resource.DependsOn, ", ")
	}
}

// RenderPlan lists every derived resource in creation order with the ID it
// has in ids, or Pending.
func RenderPlan(resources []topology.Resource, ids topology.Identifiers) string {
	headers := []string{"Address", "Kind", "Details", "ID"}
	rows := make([][]string, 0, len(resources))
	for _, resource := range resources {
		id, exists := ids[resource.Address]
		if !exists {
			id = Pending
		}
		rows = append(rows, []string{resource.Address, string(resource.Kind), describe(resource), id})
	}

	limits := []int{0, 0, maxDetailsWidth, 0}
	return renderTable(headers, rows, limits, func(row []string, column int) lipgloss.Style {
		switch column {
		case 0:
			return addressStyle
		case 3:
			if row[3] == Pending {
				return pendingStyle
			}
			return idStyle
		default:
			return cellStyle
		}
	})
}

// RenderOutputs shows the network ID and both subnet partitions.
func RenderOutputs(result topology.Result) string {
	networkID := result.NetworkID
	if networkID == "" {
		networkID = Pending
	}

	headers := []string{"Subnet", "Visibility", "Subnet ID", "AZ"}
	rows := append(outputRows(result.PublicSubnets, "public"), outputRows(result.PrivateSubnets, "private")...)

	table := renderTable(headers, rows, nil, func(row []string, column int) lipgloss.Style {
		switch {
		case column == 1 && row[1] == "public":
			return publicStyle
		case column == 2 && row[2] != Pending:
			return idStyle
		case column == 2:
			return pendingStyle
		default:
			return cellStyle
		}
	})
	return fmt.Sprintf("%s %s\n%s", headerStyle.Render("Network ID:"), idStyle.Render(networkID), table)
}

func outputRows(subnets map[string]topology.SubnetOutput, visibility string) [][]string {
	keys := make([]string, 0, len(subnets))
	for key := range subnets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		subnetID := subnets[key].SubnetID
		if subnetID == "" {
			subnetID = Pending
		}
		rows = append(rows, []string{key, visibility, subnetID, subnets[key].AvailabilityZone})
	}
	return rows
}
