package effect

import "errors"

// ErrNoRecording is returned by ReplayingRunner when a lifted call has no
// matching prior recording: the computation took a different path this
// time than it did when the recordings were captured.
var ErrNoRecording = errors.New("effect: no recording for call")

// ErrRecordingMismatch is returned by a strict ReplayingRunner when a live
// re-invocation of do produces a response hash different from the one
// recorded, the same signal graph.verifyReplayHash raises for a
// checkpoint-replayed node: evidence the effect is not actually
// deterministic.
var ErrRecordingMismatch = errors.New("effect: live response does not match recording")
