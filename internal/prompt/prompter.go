package prompt

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

const (
	inputClosedMessageConstant  = "input closed before a message was provided"
	emptyMessageMessageConstant = "message must not be empty"
	emptyInputWarningConstant   = "A message is required.\n"
)

// ErrInputClosed indicates the input stream ended before a non-empty message was read.
var ErrInputClosed = errors.New(inputClosedMessageConstant)

// ErrEmptyMessage is the validation failure reported for blank input.
var ErrEmptyMessage = errors.New(emptyMessageMessageConstant)

// MessagePrompter blocks until the operator supplies a non-empty message.
type MessagePrompter interface {
	PromptMessage(prompt string) (string, error)
}

// LinePrompter reads messages line by line and asks again on blank input.
type LinePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewLinePrompter constructs a prompter from the provided reader and writer.
func NewLinePrompter(input io.Reader, output io.Writer) *LinePrompter {
	return &LinePrompter{reader: bufio.NewReader(input), writer: output}
}

// PromptMessage writes the prompt and returns the first non-empty line.
func (prompter *LinePrompter) PromptMessage(prompt string) (string, error) {
	for {
		if writeError := prompter.write(prompt); writeError != nil {
			return "", writeError
		}

		response, readError := prompter.reader.ReadString('\n')
		if readError != nil && !errors.Is(readError, io.EOF) {
			return "", readError
		}

		if message := strings.TrimSpace(response); len(message) > 0 {
			return message, nil
		}
		if errors.Is(readError, io.EOF) {
			return "", ErrInputClosed
		}
		if writeError := prompter.write(emptyInputWarningConstant); writeError != nil {
			return "", writeError
		}
	}
}

func (prompter *LinePrompter) write(text string) error {
	if prompter.writer == nil {
		return nil
	}
	_, writeError := io.WriteString(prompter.writer, text)
	return writeError
}

// FormPrompter renders an interactive input field.
type FormPrompter struct{}

// PromptMessage runs a single-field form that refuses blank input.
func (FormPrompter) PromptMessage(prompt string) (string, error) {
	var message string
	inputError := huh.NewInput().
		Title(prompt).
		Value(&message).
		Validate(validateMessage).
		Run()
	if inputError != nil {
		return "", inputError
	}
	return strings.TrimSpace(message), nil
}

func validateMessage(message string) error {
	if len(strings.TrimSpace(message)) == 0 {
		return ErrEmptyMessage
	}
	return nil
}

// Resolve selects the interactive prompter when stdin is a terminal.
func Resolve(input *os.File, output io.Writer, nonInteractive bool) MessagePrompter {
	if !nonInteractive && input != nil && term.IsTerminal(int(input.Fd())) {
		return FormPrompter{}
	}
	return NewLinePrompter(input, output)
}
