package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raushankrgupta/eyewear-stylist/config"
	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stylist",
		Short:         "Try eyewear styles on a portrait from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			utils.InitLogger(config.LogLevel, config.LogFormat)
		},
	}
	root.AddCommand(newGenerateCmd(), newChatCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var face, glasses, style, out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a portrait wearing eyewear",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(config.GenerationTimeoutSecs)*time.Second)
			defer cancel()

			ctrl, closeFn, err := newController(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			subject, err := readImageFile(face)
			if err != nil {
				return err
			}
			if err := ctrl.UploadSubjectImage(ctx, subject); err != nil {
				return err
			}

			if glasses != "" {
				reference, err := readImageFile(glasses)
				if err != nil {
					return err
				}
				if err := ctrl.SetMode(ctx, models.ModeTryOn); err != nil {
					return err
				}
				if err := ctrl.UploadReferenceImage(ctx, reference); err != nil {
					return err
				}
			}

			if err := ctrl.Generate(ctx); err != nil {
				return err
			}
			if style != "" {
				if err := ctrl.RequestVisualization(ctx, style); err != nil {
					return err
				}
			}

			snap := ctrl.Snapshot()
			for _, m := range snap.Session.Messages {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", m.Role, m.Text)
			}
			data, _, err := utils.DecodeDataURL(snap.Session.GeneratedImage)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&face, "face", "", "portrait image file")
	cmd.Flags().StringVar(&glasses, "glasses", "", "eyewear image file; switches to try-on mode")
	cmd.Flags().StringVar(&style, "style", "", "free-text edit applied after the first generation")
	cmd.Flags().StringVar(&out, "out", "result.png", "output file")
	_ = cmd.MarkFlagRequired("face")
	return cmd
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the eyewear consultant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, closeFn, err := newController(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ctrl.SendChatMessage(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			msgs := ctrl.Snapshot().Session.Messages
			reply := msgs[len(msgs)-1]
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			for _, l := range reply.Links {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s <%s>\n", l.Title, l.URL)
			}
			return nil
		},
	}
}

// newController wires the Gemini clients to a memory-backed session.
func newController(ctx context.Context) (*stylist.Controller, func(), error) {
	limiter := utils.NewGeminiLimiter(config.GeminiRequestsPerMinute)
	generator, err := utils.NewImageGenerator(ctx, config.GeminiAPIKey, config.GeminiImageModel, limiter)
	if err != nil {
		return nil, nil, err
	}
	consultant, err := utils.NewConsultant(ctx, config.GeminiAPIKey, config.GeminiChatModel, limiter, utils.ConsultantOptions{})
	if err != nil {
		generator.Close()
		return nil, nil, err
	}

	now := time.Now()
	session := &models.Session{ID: "cli", Mode: models.ModeConsultant, CreatedAt: now, UpdatedAt: now}
	ctrl := stylist.NewController(session, stylist.Dependencies{
		Generator:  generator,
		Consultant: consultant,
		Store:      stylist.NewMemoryStore(),
	})
	return ctrl, func() {
		if err := generator.Close(); err != nil {
			logrus.WithError(err).Debug("closing image generator")
		}
	}, nil
}

func readImageFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	maxMB := config.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return utils.ReadImageDataURL(f, int64(maxMB)<<20)
}
