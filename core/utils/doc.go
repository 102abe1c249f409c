// Package utils holds small formatting helpers shared by the CLI and the
// review API.
package utils
