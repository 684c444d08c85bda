package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edupipe/pdf-image-extractor/pkg/extractor"
)

var (
	extractPDFPath   string
	extractOutputDir string
	extractNoReport  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract images from a single PDF",
	Long:  "Extract every embedded image from one PDF into the output directory.",
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractPDFPath, "pdf", "p", "", "Path to PDF file (required)")
	extractCmd.Flags().StringVarP(&extractOutputDir, "output", "o", "", "Output directory for images (default: <pdf-dir>/<pdf-name>-images)")
	extractCmd.Flags().BoolVar(&extractNoReport, "no-report", false, "Skip writing the diagnostic report file")
	extractCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if extractNoReport {
		cfg.SaveReportToFile = false
	}

	outputDir := extractOutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir(extractPDFPath)
	}

	client, err := extractor.NewClientWithConfig(cfg)
	if err != nil {
		return err
	}

	report := client.ExtractImages(extractPDFPath, outputDir)
	printReportSummary(cmd, report)

	if !report.Success && report.ExtractedCount == 0 && len(report.Errors) > 0 {
		return fmt.Errorf("extraction produced no images: %s", report.Errors[0])
	}
	return nil
}

func defaultOutputDir(pdfPath string) string {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return filepath.Join(filepath.Dir(pdfPath), base+"-images")
}

func printReportSummary(cmd *cobra.Command, report extractor.DocumentReport) {
	status := "OK"
	if !report.Success {
		status = "PROBLEMATIC"
	}
	cmd.Printf("%s: %d extracted, %d failed (%.0f%% failure ratio)\n",
		status, report.ExtractedCount, report.FailedCount, report.FailureRatio*100)
	if report.ReportPath != "" {
		cmd.Printf("Diagnostic report: %s\n", report.ReportPath)
	}
	for _, p := range report.ProblematicImages {
		cmd.Printf("  problem: page %d image %d xref %d [%s] %s\n",
			p.Page, p.IndexOnPage+1, p.XRef, p.IssueType, p.Issue)
	}
}
