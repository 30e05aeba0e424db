// Package sequence drives contacts through multi-step email campaigns.
//
// An enrollment is the state machine instance tying one contact to one
// campaign. The service owns every transition: enrolling, advancing the
// step cursor after a successful send, recording engagement events, and
// the pause / resume / unsubscribe controls.
//
// Rules the service enforces:
//
//   - Each step of an enrollment is sent at most once. The cursor advance
//     is a compare-and-swap against the step the caller observed, so two
//     concurrent advances cannot both send.
//   - The cursor only moves forward, one step at a time.
//   - completed and unsubscribed are terminal. No operation mutates a
//     terminal enrollment; reads still work.
//   - Engagement timestamps are first-wins: a duplicate opened or clicked
//     event lands in the ledger but does not overwrite the stamp.
//   - A transport failure mutates nothing. The enrollment stays due and
//     the next scheduler tick retries the same step.
package sequence
