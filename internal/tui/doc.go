// Package tui renders batch progress and reports for terminals.
//
// ProgressModel is a Bubble Tea model fed by batch events through a
// batch.ChannelObserver. RenderSummary, RenderEstimate and RenderBatchList
// produce static lipgloss output for non-interactive use.
package tui
