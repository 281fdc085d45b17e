// Package ui implements an interactive terminal interface for a single batch using bubbletea's Elm architecture.
//
// The TUI walks through:
//  1. [PlaylistListView] : pick the destination playlist (skipped when one was given)
//  2. [ItemListView] : preview the parsed items
//  3. [ConfirmView] : confirm the batch
//  4. [ProgressView] : "Processing i of n" with a spinner and progress bar
//  5. [ResultView] : headline and the colored per-item log
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress events flow from the engine through a [tasks.ChannelReporter], so a slow redraw never stalls the batch.
// Pressing esc during a run cancels it; the engine stops before the next item and the partial summary is shown.
package ui
