package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tsawler/go-metal/checkpoints"

	"github.com/dudu/mirrorbooth/internal/inference"
)

const megabyte = 1024 * 1024

var probeMetal bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the landmark models",
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check [model.onnx...]",
	Short: "Check that each model loads in ONNX Runtime",
	Long: `Check that each model exists and that ONNX Runtime can read its inputs and
outputs. With no arguments the configured detector models are checked.
--metal also tries to import each model with go-metal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.Detector.FaceModel, cfg.Detector.MeshModel}
		}
		if err := inference.Initialize(inference.Options{LibraryPath: cfg.Detector.ORTLibrary}, log.Named("onnx")); err != nil {
			return err
		}
		defer inference.Shutdown()
		return checkModels(cmd.OutOrStdout(), paths, probeMetal)
	},
}

func init() {
	modelsCheckCmd.Flags().BoolVar(&probeMetal, "metal", false, "also try importing each model with go-metal")
	modelsCmd.AddCommand(modelsCheckCmd)
	rootCmd.AddCommand(modelsCmd)
}

type modelReport struct {
	path    string
	sizeMB  float64
	inputs  []string
	outputs []string
	metal   string
	err     error
}

func inspectModel(path string, metal bool) modelReport {
	r := modelReport{path: path}
	info, err := os.Stat(path)
	if err != nil {
		r.err = fmt.Errorf("model not found: %w", err)
		return r
	}
	r.sizeMB = float64(info.Size()) / megabyte

	r.inputs, r.outputs, r.err = inference.Inspect(path)
	if r.err != nil || !metal {
		return r
	}

	checkpoint, err := checkpoints.NewONNXImporter().ImportFromONNX(path)
	if err != nil {
		r.metal = "unsupported"
		log.Debugw("go-metal import failed", "model", path, "error", err)
		return r
	}
	r.metal = fmt.Sprintf("%d layers, %d tensors", len(checkpoint.ModelSpec.Layers), len(checkpoint.Weights))
	return r
}

func checkModels(w io.Writer, paths []string, metal bool) error {
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("checking models"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	reports := make([]modelReport, 0, len(paths))
	for _, p := range paths {
		reports = append(reports, inspectModel(p, metal))
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"Model", "Size (MB)", "Inputs", "Outputs", "Status"}
	if metal {
		header = append(header, "go-metal")
	}
	t.AppendHeader(header)

	failed := 0
	for _, r := range reports {
		status := "ok"
		if r.err != nil {
			status = r.err.Error()
			failed++
		}
		row := table.Row{r.path, fmt.Sprintf("%.1f", r.sizeMB), strings.Join(r.inputs, ", "), strings.Join(r.outputs, ", "), status}
		if metal {
			row = append(row, r.metal)
		}
		t.AppendRow(row)
	}
	t.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(reports))
	}
	return nil
}
