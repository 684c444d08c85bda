package commands

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/edupipe/pdf-image-extractor/pkg/extractor"
)

var (
	batchInputDir  string
	batchOutputDir string
	batchRecursive bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract images from every PDF in a directory",
	Long: `Walk a directory of PDFs and extract images from each into a per-PDF
subdirectory of the output directory. Documents are processed one at a
time; a failing document never stops the batch.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchInputDir, "input", "i", "", "Directory containing PDFs (required)")
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "Output directory (default: <input>/extracted-images)")
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false, "Descend into subdirectories")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	outputDir := batchOutputDir
	if outputDir == "" {
		outputDir = filepath.Join(batchInputDir, "extracted-images")
	}

	pdfs, err := collectPDFs(batchInputDir, batchRecursive)
	if err != nil {
		return fmt.Errorf("scan input directory: %w", err)
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDF files found in %s", batchInputDir)
	}

	client, err := extractor.NewClientWithConfig(cfg)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(pdfs),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var extracted, failed, problematic int
	for _, pdfPath := range pdfs {
		base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
		report := client.ExtractImages(pdfPath, filepath.Join(outputDir, base))

		extracted += report.ExtractedCount
		failed += report.FailedCount
		if !report.Success {
			problematic++
		}
		bar.Add(1)
	}

	cmd.Printf("Batch complete: %d PDFs, %d images extracted, %d failed, %d problematic documents\n",
		len(pdfs), extracted, failed, problematic)
	return nil
}

// collectPDFs lists .pdf files under dir in a stable walk order.
func collectPDFs(dir string, recursive bool) ([]string, error) {
	var pdfs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	return pdfs, err
}
