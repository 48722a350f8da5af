// p2plink CLI entry point.
//
// This tool connects two peers over a WebRTC DataChannel without any
// signaling server: the initiator shares an invite link, the responder
// replies with an answer link, and the two then chat directly.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-role, -ip, -origin, -link, -stun, -web).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/pterm/pterm"

	"github.com/1ureka/p2plink/internal/config"
	"github.com/1ureka/p2plink/internal/link"
	"github.com/1ureka/p2plink/internal/payload"
	"github.com/1ureka/p2plink/internal/session"
	"github.com/1ureka/p2plink/internal/surface"
	"github.com/1ureka/p2plink/internal/transport"
	"github.com/1ureka/p2plink/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()

	// CLI flags.
	role := flag.String("role", "", "Role: offer or answer")
	flag.StringVar(&cfg.AdvertiseAddress, "ip", "", "Address to advertise in every candidate (default: detected)")
	flag.StringVar(&cfg.Origin, "origin", cfg.Origin, "Prefix of generated links")
	flag.StringVar(&cfg.InviteLink, "link", "", "Invite link to answer (answer only)")
	stunFlag := flag.String("stun", "", "Comma-separated STUN server URLs")
	flag.StringVar(&cfg.WebListen, "web", "", "Serve the event stream on this address (e.g. 127.0.0.1:8787)")
	flag.DurationVar(&cfg.AnswerWatchdog, "watchdog", cfg.AnswerWatchdog, "Advisory connect deadline after the answer is set")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("p2plink v%s", version))
	pterm.Println()

	servers, err := config.ParseSTUNServers(*stunFlag)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	cfg.STUNServers = servers

	if *role == "" {
		// No -role flag: interactive mode.
		cfg.Role = askRole()
	} else if cfg.Role, err = config.ParseRole(*role); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

func run(ctx context.Context, cfg config.Config) error {
	api := transport.NewAPI(transport.Settings{})

	var s *session.Session
	surfaces := surface.Multi{surface.NewConsole(nil)}

	if cfg.WebListen != "" {
		hub := surface.NewHub(func(text string) bool { return s.SendMessage(text) })
		addr, err := hub.Start(cfg.WebListen)
		if err != nil {
			return err
		}
		defer hub.Close()
		util.LogInfo("event stream on ws://%s%s", addr, surface.EventsPath)
		surfaces = append(surfaces, hub)
	}

	s = session.New(session.Options{
		API:            api,
		STUNServers:    cfg.STUNServers,
		AnswerWatchdog: cfg.AnswerWatchdog,
		OnEvent:        surfaces.Handle,
	})
	defer func() {
		util.LogInfo("%s", s.Stats().Summary())
		if err := s.Close(); err != nil {
			util.LogDebug("close session: %v", err)
		}
	}()

	addr := resolveAddress(ctx, cfg, api)

	var err error
	if cfg.Role == config.RoleInitiator {
		err = runInitiator(ctx, cfg, s, addr)
	} else {
		err = runResponder(ctx, cfg, s, addr)
	}
	if err != nil {
		return err
	}

	chat(ctx, s)
	util.LogInfo("chat session closed")
	return nil
}

// runInitiator creates the invite, prints it and applies the answer.
func runInitiator(ctx context.Context, cfg config.Config, s *session.Session, addr string) error {
	offer, err := s.CreateOffer(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	printLink("Invite link (send this to your peer)", link.Build(cfg.Origin, link.KindOffer, offer, addr))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l, ok := askLink("Paste the answer link", link.KindAnswer)
		if !ok {
			continue
		}
		logPeerAddress(l)

		err := s.SetAnswer(l.Blob)
		if errors.Is(err, session.ErrEmptyBlob) || errors.Is(err, payload.ErrMalformed) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set answer: %w", err)
		}
		return nil
	}
}

// runResponder answers the invite and prints the answer link.
func runResponder(ctx context.Context, cfg config.Config, s *session.Session, addr string) error {
	raw := cfg.InviteLink

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var (
			l  link.Link
			ok bool
		)
		if raw != "" {
			l, ok = checkLink(raw, link.KindOffer)
			raw = ""
		} else {
			l, ok = askLink("Paste the invite link", link.KindOffer)
		}
		if !ok {
			continue
		}
		logPeerAddress(l)

		answer, err := s.CreateAnswer(ctx, l.Blob, addr)
		if errors.Is(err, session.ErrEmptyBlob) || errors.Is(err, payload.ErrMalformed) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}

		printLink("Answer link (send this back to your peer)", link.Build(cfg.Origin, link.KindAnswer, answer, addr))
		util.LogInfo("waiting for the peer to apply the answer...")
		return nil
	}
}

// chat sends stdin lines until Ctrl+C or EOF.
func chat(ctx context.Context, s *session.Session) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !s.SendMessage(line) {
				util.LogWarning("chat is not connected yet; message not sent")
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// resolveAddress returns the address to advertise. An empty result keeps the
// discovered candidate addresses.
func resolveAddress(ctx context.Context, cfg config.Config, api *webrtc.API) string {
	if cfg.AdvertiseAddress != "" {
		return strings.TrimSpace(cfg.AdvertiseAddress)
	}

	detected := session.LocalAddress(ctx, api, cfg.AddressProbeTimeout)
	util.LogInfo("detected local address: %s", detected)

	raw, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText(fmt.Sprintf("Address to share (blank: %s)", detected)).
		Show()
	pterm.Println()

	addr := strings.TrimSpace(raw)
	if addr == "" {
		addr = detected
	}
	if addr == session.UnknownAddress {
		util.LogWarning("no address detected; sharing discovered candidates unchanged")
		return ""
	}
	return addr
}

// askRole prompts for the handshake side.
func askRole() config.Role {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Offer:  create an invite link", "Answer: reply to an invite link"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(role, "Answer") {
		return config.RoleResponder
	}
	return config.RoleInitiator
}

// askLink prompts once for a link of the given kind.
func askLink(prompt string, want link.Kind) (link.Link, bool) {
	raw, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText(prompt).
		Show()
	pterm.Println()

	return checkLink(raw, want)
}

// checkLink parses raw and reports problems as warnings.
func checkLink(raw string, want link.Kind) (link.Link, bool) {
	l, err := link.Parse(raw)
	switch {
	case errors.Is(err, link.ErrEmpty):
		util.LogWarning("Please paste the %s link.", want)
		return link.Link{}, false
	case err != nil:
		util.LogWarning("invalid link: %v", err)
		return link.Link{}, false
	case l.Kind != want:
		util.LogWarning("expected an %s link, got an %s link", want, l.Kind)
		return link.Link{}, false
	}
	return l, true
}

func logPeerAddress(l link.Link) {
	if l.Address != "" {
		util.LogInfo("peer address: %s", l.Address)
	}
	util.LogDebug("%s fingerprint: %s", l.Kind, util.Fingerprint(l.Blob))
}

func printLink(title, raw string) {
	pterm.DefaultSection.Println(title)
	pterm.Println(raw)
	pterm.Println()
}
