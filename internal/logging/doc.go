// Package logging assembles structured slog loggers used across synthkit.
//
// It owns the console and JSON handlers, level parsing, and the component
// logger convention ("component: message key=value"). Library clients take a
// *slog.Logger and fall back to NewNop, so importing the SDK never prints
// anything unless the caller asks for it.
package logging
