package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/payment"
)

type generateOptions struct {
	model       string
	duration    int
	aspectRatio string
	agentID     string
	image       string
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Pay for a generation job and wait for the result",
		Long: `Submit a prompt to POST <api-url>/generation/create, paying the x402 challenge
once, then poll <api-url>/generation/<taskId>/status until the job completes,
fails or runs out of attempts. The final report is printed as JSON on stdout.

Examples:
  x402gen generate "A sunset over mountains"
  x402gen generate "A cat surfing" --model sora-2 --duration 10 --aspect-ratio 16:9
  x402gen generate "Animate this" --image ./photo.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), strings.Join(args, " "), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.model, "model", generation.DefaultModel, "Generation model")
	f.IntVar(&opts.duration, "duration", generation.DefaultDuration, "Clip length in seconds")
	f.StringVar(&opts.aspectRatio, "aspect-ratio", generation.DefaultAspectRatio, "Aspect ratio: 16:9, 9:16, 1:1, 4:3, 3:4")
	f.StringVar(&opts.agentID, "agent-id", "", "Agent identifier to attribute the job to")
	f.StringVar(&opts.image, "image", "", "Reference image: URL, data URI or local file")
	return cmd
}

func (a *app) runGenerate(ctx context.Context, prompt string, opts *generateOptions) error {
	image, err := loadImage(opts.image)
	if err != nil {
		return err
	}
	req, err := generation.NewGenerationRequest(prompt,
		generation.WithModel(opts.model),
		generation.WithDuration(opts.duration),
		generation.WithAspectRatio(opts.aspectRatio),
		generation.WithAgentID(opts.agentID),
		generation.WithImageData(image),
	)
	if err != nil {
		return err
	}
	if err := a.cfg.RequireAPIBaseURL(); err != nil {
		return err
	}
	payer, err := a.cfg.NewPayer()
	if err != nil {
		return err
	}

	payOpts := append([]payment.Option{
		payment.WithLogger(a.log),
		payment.WithMetrics(a.metrics),
		payment.WithHTTPClient(a.paidHTTPClient()),
	}, a.cfg.PaymentOptions()...)
	payClient := payment.NewClient(payer, payOpts...)

	genOpts := append([]generation.Option{
		generation.WithNetwork(payer.Network()),
		generation.WithLogger(a.log),
		generation.WithMetrics(a.metrics),
		generation.WithObserver(newTerminalObserver(a.stderr)),
	}, a.genOpts...)
	client, err := generation.NewClient(a.cfg.APIBaseURL, payClient, genOpts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stderr, "Paying from %s on %s; model %s\n", payer.Address(), payer.Network(), req.Model)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	report, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, report)
}

// loadImage passes URLs and data URIs through and inlines local files as data URIs.
func loadImage(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	raw, err := os.ReadFile(ref)
	if err != nil {
		return "", &generation.Error{Kind: generation.ErrInput, Message: "read image", Err: err}
	}
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", &generation.Error{Kind: generation.ErrInput, Message: fmt.Sprintf("%s is %s, not an image", ref, mime)}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
