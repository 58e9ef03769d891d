// Package logger wraps zap with the conventions used by the tracker binaries:
//   - one global sugared console logger whose level can change at runtime,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every service
//     logs under its own name and carries its own fields,
//   - ctx-first convenience functions (Info, InfoKV, WarnKV, ErrorKV, ...).
package logger
