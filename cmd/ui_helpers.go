// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"bulkforce/cli/internal/batch"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner is a single-line area animation whose text can change while it runs.
type spinner struct {
	area *pterm.AreaPrinter
	stop chan struct{}
	wg   sync.WaitGroup

	mu   sync.Mutex
	text string
}

// startProgress hides the cursor and animates text until Stop is called.
// Without a usable terminal area it degrades to nothing.
func startProgress(text string) *spinner {
	s := &spinner{stop: make(chan struct{}), text: text}
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return s
	}
	s.area = area
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		i := 0
		for {
			select {
			case <-t.C:
				i++
				s.mu.Lock()
				line := fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], s.text)
				s.mu.Unlock()
				area.Update(line)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

// Update replaces the text shown next to the animation.
func (s *spinner) Update(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// Stop ends the animation, removes the area and shows the cursor again.
func (s *spinner) Stop() {
	if s.area == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	_ = s.area.Stop()
	s.area = nil
	cursor.Show()
}

// startSpinner is startProgress for callers that never change the text.
func startSpinner(text string) func() {
	return startProgress(text).Stop
}

func progressText(st batch.Status) string {
	text := "Batch " + st.State
	if st.RecordsProcessed > 0 || st.RecordsFailed > 0 {
		text += fmt.Sprintf(" · %d processed, %d failed", st.RecordsProcessed, st.RecordsFailed)
	}
	return text
}

func statusRows(b *batch.Batch, st batch.Status) pterm.TableData {
	rows := pterm.TableData{
		{"Job", b.JobID},
		{"Batch", b.BatchID},
		{"State", st.State},
		{"Processed", strconv.Itoa(st.RecordsProcessed)},
		{"Failed", strconv.Itoa(st.RecordsFailed)},
	}
	if st.StateMessage != "" {
		rows = append(rows, []string{"Message", st.StateMessage})
	}
	return rows
}

func printStatus(b *batch.Batch, st batch.Status) {
	switch st.State {
	case batch.StateCompleted:
		pterm.Success.Println("Batch completed")
	case batch.StateFailed, batch.StateNotProcessed:
		pterm.Error.Printf("Batch %s\n", st.State)
	default:
		pterm.Info.Printf("Batch %s\n", st.State)
	}
	_ = pterm.DefaultTable.WithData(statusRows(b, st)).Render()
}
