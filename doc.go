// Package identity implements the account and session backend for the
// CloudSell ID service: registration, credential authentication, signed
// token issuance/verification, and the email confirmation and password
// reset flows, with notification jobs dispatched to a durable queue.
//
// Token lifecycle:
//   - Access tokens are short lived and prove a recent authentication.
//   - Refresh tokens are long lived and only mint new access tokens.
//   - Confirmation tokens reuse the refresh encoder with a shorter
//     lifetime and a confirmation claim; password reset links reuse the
//     same shape. Every token carries a purpose claim that the
//     purpose-sensitive operations check after decode.
//
// Failure isolation:
//   - Registration always returns the token pair once the account has
//     been persisted. The confirmation email is a best-effort side
//     effect; failures on that path are recorded through a FailureSink
//     and swallowed. Standalone confirmation and reset email requests
//     surface publish failures to the caller.
//
// Storage and transport are supplied by the caller: an AccountStore
// (a Bun-backed implementation and an in-memory one ship with the
// package) and a queue.Producer for notification jobs.
package identity
