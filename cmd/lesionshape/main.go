package main

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lesionshape/internal/logger"
	"lesionshape/internal/models"
	"lesionshape/pkg/config"
	"lesionshape/pkg/features"
	"lesionshape/pkg/inspect"
)

var (
	configPath    string
	maskPath      string
	imagePath     string
	maskThreshold float64
	featureNames  []string
	outputFormat  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lesionshape",
		Short:         "Shape descriptors for skin lesion segmentation masks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "lesionshape.yaml", "Path to the YAML configuration file")

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Compute shape features for a lesion mask",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout())
		},
	}
	extractCmd.Flags().StringVar(&maskPath, "mask", "", "Binary lesion mask image (PNG or JPEG, required)")
	extractCmd.Flags().StringVar(&imagePath, "image", "", "Grayscale lesion image, must match the mask size")
	extractCmd.Flags().Float64Var(&maskThreshold, "threshold", 0.5, "Intensity above which a mask pixel is foreground (0.0-1.0)")
	extractCmd.Flags().StringSliceVar(&featureNames, "feature", nil, "Feature to compute, repeatable (default: features.enabled from config)")
	extractCmd.Flags().StringVar(&outputFormat, "output", "text", "Output format: text|json")
	extractCmd.MarkFlagRequired("mask")

	initCmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", configPath)
			return nil
		},
	}

	rootCmd.AddCommand(extractCmd, initCmd)
	return rootCmd
}

func runExtract(out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Output.LogLevel)
	log := logger.WithField("mask", maskPath)

	if maskThreshold < 0 || maskThreshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0, got %.2f", maskThreshold)
	}
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	maskImg, err := loadImage(maskPath)
	if err != nil {
		return fmt.Errorf("failed to load mask: %w", err)
	}
	mask := models.MaskFromImage(maskImg, maskThreshold)

	var img *models.Image
	if imagePath != "" {
		decoded, err := loadImage(imagePath)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}
		img = models.ImageFromGray(decoded)
	}

	normOpts, err := cfg.NormalizeOptions()
	if err != nil {
		return err
	}
	opts := features.Options{Normalize: normOpts, Log: log}
	if cfg.Output.Verbose {
		opts.Inspector = inspect.Logger{Entry: log}
	}
	extractor := features.NewExtractor(opts)

	names := featureNames
	if len(names) == 0 {
		names = cfg.Features.Enabled
	}

	scores, err := extractor.ExtractAll(names, img, mask)
	if err != nil {
		log.WithError(err).Error("Feature extraction failed")
		return err
	}
	log.WithFields(logrus.Fields{
		"features": len(scores),
		"area":     mask.Area(),
	}).Info("Extracted features")

	return writeScores(out, names, scores)
}

func writeScores(out io.Writer, names []string, scores map[string]float64) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}
	for _, name := range names {
		f, err := features.Parse(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%-12s %.6f\n", f, scores[f.String()]); err != nil {
			return err
		}
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return img, nil
}
