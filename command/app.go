package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/core"
	"github.com/AlexNa-Holdings/memestake/ui"
	"github.com/AlexNa-Holdings/memestake/wallet"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

var ErrNoWallet = errors.New("no wallet selected, use --wallet or create one with 'memestake wallet create'")

var stdin = bufio.NewReader(os.Stdin)

// readPassword asks without echo on a terminal and reads a plain line
// otherwise. Tests replace it.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	return readLine("")
}

var readLine = func(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(os.Stderr, prompt)
	}
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runTUI(ctx context.Context) error {
	app, err := core.New(ctx, cmn.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	return ui.Run(ui.Deps{
		Context:   ctx,
		Session:   app,
		Email:     emailFlow(app),
		Chain:     app.Chain,
		Cache:     app.Cache,
		Contracts: app.Contracts,
		Bus:       app.Bus,
		Config:    app.Config,
		PollEvery: app.Config.PollInterval,
	})
}

// ui.Deps wants a nil interface, not a typed nil, when email login is off.
func emailFlow(app *core.App) ui.EmailFlow {
	if app.Email == nil {
		return nil
	}
	return app.Email
}

// startApp starts the services for a one-shot command. Confirmations are
// asked on the terminal unless --yes is given.
func startApp(ctx context.Context) (*core.App, error) {
	cfg := *cmn.Config
	if assumeYes {
		cfg.ConfirmTx = false
	}

	app, err := core.New(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ConfirmTx {
		go confirmLoop(app.Bus.Subscribe("ui"))
	}
	return app, nil
}

// unlock logs the configured wallet in, asking for its password.
func unlock(app *core.App) error {
	name := app.Config.Wallet
	if name == "" {
		names := app.Wallets()
		if len(names) != 1 {
			return ErrNoWallet
		}
		name = names[0]
	}
	if !wallet.Exists(app.Session.Dir(), name) {
		return fmt.Errorf("wallet %q not found", name)
	}

	pass, err := readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		return err
	}
	return app.Login(name, pass)
}

// confirmLoop answers confirm-tx requests from the terminal.
func confirmLoop(ch chan *bus.Message) {
	for msg := range ch {
		if msg.RespondTo != 0 || msg.Type != "confirm-tx" {
			continue
		}
		req, ok := msg.Data.(*bus.B_ConfirmTx)
		if !ok {
			msg.Respond(false, bus.ErrInvalidMessageData)
			continue
		}

		fmt.Fprintf(os.Stderr, "\n%s: %s.%s\n  from %s\n  to   %s\n", req.Action, cmn.ShortAddress(req.To), req.Method, req.From.Hex(), req.To.Hex())
		if req.Amount != nil && req.Amount.Sign() > 0 {
			fmt.Fprintf(os.Stderr, "  value %s\n", cmn.DisplayAmount(req.Amount, true))
		}
		fmt.Fprintf(os.Stderr, "  gas %d\n", req.Gas)

		answer, err := readLine("Sign? [y/N] ")
		if err != nil {
			log.Error().Err(err).Msg("confirm: reading answer")
		}
		msg.Respond(strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil)
	}
}
