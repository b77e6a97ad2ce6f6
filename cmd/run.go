package main

import (
	"fmt"
	"io"
	"os"

	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	runInput     string
	runOutput    string
	runFormat    string
	runDelimiter string
	runXLSX      string
	runGeoJSON   string
	runCopy      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Geocode an address list and export the results",
	Long: `Reads a delimited address list with an addressString column, geocodes every row
and writes the results table.

Examples:
  geobatch run --input addresses.csv --output results.csv
  cat addresses.tsv | geobatch run --format tsv --xlsx results.xlsx --copy`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, err := readInput(cmd.InOrStdin(), runInput)
		if err != nil {
			return err
		}

		application, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer application.close()

		stderr := cmd.ErrOrStderr()
		opts := application.options(func(status string) {
			_, _ = fmt.Fprintln(stderr, status)
		})

		batch := service.NewBatch(ctx, uuid.NewString(), logger, application.provider, application.areas,
			application.recorder, application.metrics, opts)
		if err = batch.Load(input); err != nil {
			return err
		}
		batch.Wait()

		return writeOutputs(cmd.OutOrStdout(), batch)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "-", "address list to geocode, - reads stdin")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "results file, stdout when empty")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", string(service.ExportCSV), "results format: csv, tsv, xlsx, geojson")
	runCmd.Flags().StringVarP(&runDelimiter, "delimiter", "d", "", "csv delimiter: comma, tab, semicolon, pipe, input or a single character")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "also write an xlsx workbook to this file")
	runCmd.Flags().StringVar(&runGeoJSON, "geojson", "", "also write a GeoJSON feature collection to this file")
	runCmd.Flags().BoolVar(&runCopy, "copy", false, "copy the comma delimited results to the clipboard")
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return string(data), nil
}

// writeOutputs writes every requested export concurrently.
func writeOutputs(stdout io.Writer, batch *service.Batch) error {
	var group errgroup.Group

	group.Go(func() error {
		if runOutput == "" {
			return batch.Export(stdout, service.ExportFormat(runFormat), runDelimiter)
		}
		return exportFile(batch, runOutput, service.ExportFormat(runFormat), runDelimiter)
	})

	if runXLSX != "" {
		group.Go(func() error {
			return exportFile(batch, runXLSX, service.ExportXLSX, "")
		})
	}

	if runGeoJSON != "" {
		group.Go(func() error {
			return exportFile(batch, runGeoJSON, service.ExportGeoJSON, "")
		})
	}

	if runCopy {
		group.Go(func() error {
			text, err := batch.ClipboardText()
			if err != nil {
				return err
			}
			if err = clipboard.WriteAll(text); err != nil {
				return fmt.Errorf("failed to copy results to clipboard: %w", err)
			}
			return nil
		})
	}

	return group.Wait()
}

func exportFile(batch *service.Batch, path string, format service.ExportFormat, delimiter string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err = batch.Export(file, format, delimiter); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
