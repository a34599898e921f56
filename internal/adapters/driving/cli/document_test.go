package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "add")
	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "delete")
}

// Document Add Tests

func TestDocumentAddCmd_Use(t *testing.T) {
	assert.Equal(t, "add [path]", documentAddCmd.Use)
}

func TestDocumentAddCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"document", "add"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentAddCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "add", "/tmp/notes.md"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Added document doc-1")
	assert.Contains(t, buf.String(), "1024 bytes")
}

func TestDocumentAddCmd_TypeFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "add", "--type", "markdown", "/tmp/notes.md"})
	defer func() {
		rootCmd.SetArgs(nil)
		docType = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "markdown")
}

func TestDocumentAddCmd_ServiceNotConfigured(t *testing.T) {
	oldService := documentService
	documentService = nil
	defer func() {
		documentService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"document", "add", "/tmp/notes.md"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}

// Document List Tests

func TestDocumentListCmd_Use(t *testing.T) {
	assert.Equal(t, "list", documentListCmd.Use)
}

func TestDocumentListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "doc-1")
	assert.Contains(t, buf.String(), "/tmp/notes.md")
	assert.Contains(t, buf.String(), "ready")
	assert.Contains(t, buf.String(), "Total: 1 documents")
}

// Document Delete Tests

func TestDocumentDeleteCmd_Use(t *testing.T) {
	assert.Equal(t, "delete [doc-id]", documentDeleteCmd.Use)
}

func TestDocumentDeleteCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"document", "delete"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentDeleteCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "delete", "doc-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Deleted document: doc-1")
}
