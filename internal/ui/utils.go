package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Colors for consistent UI
const (
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

type console struct {
	in  *bufio.Reader
	out io.Writer
}

// PrintWarning displays a warning message with consistent formatting
func (c *console) PrintWarning(message string) {
	fmt.Fprintf(c.out, "%s\nWarning:%s\n", ColorYellow, ColorReset)
	fmt.Fprintf(c.out, "%s%s%s\n", ColorYellow, message, ColorReset)
}

// PrintError displays an error message with consistent formatting
func (c *console) PrintError(message string) {
	fmt.Fprintf(c.out, "\n%sError: %s%s\n", ColorRed, message, ColorReset)
}

// PrintSuccess displays a success message with consistent formatting
func (c *console) PrintSuccess(message string) {
	fmt.Fprintf(c.out, "\n%s%s%s\n", ColorGreen, message, ColorReset)
}

// PrintInfo displays an info message with consistent formatting
func (c *console) PrintInfo(message string) {
	fmt.Fprintf(c.out, "%s%s%s", ColorBlue, message, ColorReset)
}

// ReadString reads a trimmed line. io.EOF is returned once input is
// exhausted and nothing was read.
func (c *console) ReadString(prompt string) (string, error) {
	c.PrintInfo(prompt)
	input, err := c.in.ReadString('\n')
	if err == io.EOF && input != "" {
		err = nil
	}
	return strings.TrimSpace(input), err
}

// ReadInt reads an integer from stdin with validation
func (c *console) ReadInt(prompt string, min, max int) (int, error) {
	input, err := c.ReadString(prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return value, nil
}

// Choose lists options and accepts either a number or an exact name.
func (c *console) Choose(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to choose from")
	}
	fmt.Fprintf(c.out, "%s\n%s:%s\n", ColorGreen, title, ColorReset)
	for i, opt := range options {
		fmt.Fprintf(c.out, "%s%d. %s%s\n", ColorGreen, i+1, opt, ColorReset)
	}
	input, err := c.ReadString("Enter a number or a name: ")
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(options) {
			return "", fmt.Errorf("value must be between %d and %d", 1, len(options))
		}
		return options[n-1], nil
	}
	for _, opt := range options {
		if opt == input {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown choice: %s", input)
}
