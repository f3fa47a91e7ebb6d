// Package prompt collects free-form operator input such as tag messages.
package prompt
