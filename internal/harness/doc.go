// Package harness runs player scenarios and checks their traces.
//
// A scenario fixes a tempo, a sample rate and a block size, then drives a
// fresh player through a list of steps. Every run is journaled to an
// in-memory anchor journal, and the journal is replayed at the end, so each
// scenario also checks that its anchor chain is reproducible.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: hard_sync_recovery
//	description: "What this scenario validates"
//	tempo: 60bpm
//	sample_rate: 48kHz
//	block_size: 64
//	steps:
//	  - blocks: 2
//	  - sync: { tick: 1, frame: 128, from: anchor }
//	assertions:
//	  - type: tick_at
//	    tick: 1
//	    frame: 50
//	  - type: trace_count
//	    event: sync
//	    count: 1
//	  - type: final_tempo
//	    tempo: 23.4375bpm
//	  - type: anchor_count
//	    count: 2
//
// # Golden Files
//
// RunWithGolden compares the text trace with testdata/golden/<name>.golden.
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
