package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var docType string

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage the tenant's documents",
	Long:  `Add, list, or delete documents in the tenant's knowledge base.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Ingest a document",
	Long:  `Reads a file, chunks and embeds it, and makes it queryable.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentAdd,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's documents",
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentAddCmd.Flags().StringVarP(&docType, "type", "t", "", "document type (inferred from extension when empty)")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Add(cmd.Context(), tenantID, args[0], docType, nil)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document %s (%s, %d bytes)\n", doc.ID, doc.DocType, doc.FileSize)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), tenantID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents for tenant: %s\n", tenantID)
		return nil
	}

	cmd.Printf("Documents for tenant %s:\n\n", tenantID)
	for i := range docs {
		status := "processing"
		if docs[i].Processed {
			status = "ready"
		}
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Path: %s\n", docs[i].OriginalPath)
		cmd.Printf("    Type: %s    Status: %s    Uploaded: %s\n",
			docs[i].DocType, status, docs[i].UploadedAt.Format("2006-01-02 15:04"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), tenantID, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}
