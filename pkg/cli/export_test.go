package cli

import (
	"context"
	"io"

	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// NewAppForTest builds the root command over the given input and output
func NewAppForTest(in io.Reader, out io.Writer) *cli.Command {
	return newApp("test", in, out)
}

// RunShellForTest runs the interactive shell over uc until input ends
func RunShellForTest(ctx context.Context, uc *usecase.UseCases, in io.Reader, out io.Writer, reportPath string) error {
	p := &treePrinter{w: out, bands: config.DefaultRiskBands()}
	return newShell(uc, in, p, reportPath).Run(ctx)
}
