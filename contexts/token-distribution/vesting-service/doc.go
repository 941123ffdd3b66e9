// Package vestingservice owns vesting schedules, the claim ledger and round
// success gating for token distribution. Unlock math is a pure step function
// over integer token units; claim settlement and the success gate are driven
// by idempotent reconciliation workers against the external ledger.
package vestingservice
