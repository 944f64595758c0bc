package types

// Version is the canonical project version. The CLI, report format, and
// stored record formats share this version (lockstep versioning).
const Version = "0.3.0"
