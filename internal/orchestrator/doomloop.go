package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// doomLoopThreshold is the number of identical consecutive tool calls
// before a step is treated as a doom loop.
const doomLoopThreshold = 3

// doomLoopHistoryLimit bounds how much per-task call history is retained.
const doomLoopHistoryLimit = 10

// doomLoopDetector flags a task that keeps invoking the same tool with the
// same input, rather than letting it spin forever. Detection escalates the
// next permission request to critical risk so the trust engine's
// risk→decision table routes it through the ask path instead
// of auto-allowing it.
type doomLoopDetector struct {
	mu      sync.Mutex
	history map[string][]string // taskID -> last N call hashes
}

func newDoomLoopDetector() *doomLoopDetector {
	return &doomLoopDetector{history: make(map[string][]string)}
}

// check records the (tool, input) call for taskID and reports whether this
// call is the doomLoopThreshold-th identical call in a row.
func (d *doomLoopDetector) check(taskID, tool string, input map[string]any) bool {
	hash := hashCall(tool, input)

	d.mu.Lock()
	defer d.mu.Unlock()

	history := d.history[taskID]
	loop := false
	if len(history) >= doomLoopThreshold-1 {
		allSame := true
		start := len(history) - (doomLoopThreshold - 1)
		for i := start; i < len(history); i++ {
			if history[i] != hash {
				allSame = false
				break
			}
		}
		loop = allSame
	}

	history = append(history, hash)
	if len(history) > doomLoopHistoryLimit {
		history = history[len(history)-doomLoopHistoryLimit:]
	}
	d.history[taskID] = history
	return loop
}

// clear drops a task's call history once it finishes.
func (d *doomLoopDetector) clear(taskID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.history, taskID)
}

func hashCall(tool string, input map[string]any) string {
	data, _ := json.Marshal(map[string]any{"tool": tool, "input": input})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
