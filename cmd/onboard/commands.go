package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/armory-onboarding/internal/domain/document"
	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
	"github.com/riskibarqy/armory-onboarding/internal/domain/verification"
	"github.com/riskibarqy/armory-onboarding/internal/wizard"
)

func newRootCommand(open sessionOpener) *cobra.Command {
	var s *session

	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Walk through marketplace onboarding from the terminal",
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			s, err = open()
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if s == nil {
				return nil
			}
			_ = s.logger.Sync()
			return s.close()
		},
	}
	current := func() *session { return s }

	root.AddCommand(
		newProfileCommand(current),
		newRouteCommand(current),
		newOptionsCommand(current),
		newSubmitCommand(current),
		newVerificationCommand(current),
	)
	return root
}

func newProfileCommand(current func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the onboarding profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, gate := current().gate(cmd.Context())
			profile := gate.Profile()
			if profile == nil {
				return errors.New("profile unavailable")
			}
			doc, err := profileDocument(*profile)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), doc)
		},
	}
}

func newRouteCommand(current func() *session) *cobra.Command {
	var flow string
	cmd := &cobra.Command{
		Use:   "route <path>",
		Short: "Resolve a wizard path against the profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := current()
			_, gate := s.gate(cmd.Context())
			f, err := s.flow(flow, gate.Profile())
			if err != nil {
				return err
			}
			d := wizard.NewSequencer(f, gate, wizard.StepDeps{}, nil).Resolve(args[0])
			out := map[string]any{
				"action": d.Action.String(),
				"step":   d.Step,
			}
			if d.Kind != "" {
				out["kind"] = string(d.Kind)
			}
			if d.Location != "" {
				out["location"] = d.Location
			}
			if d.Notice != "" {
				out["notice"] = d.Notice
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&flow, "flow", "", "buyer or seller (defaults to the profile's account type)")
	return cmd
}

func newOptionsCommand(current func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List dropdown options for the step forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := current()
			opts := wizard.LoadOptions(cmd.Context(), s.backend, s.countries, s.logger)
			return writeYAML(cmd.OutOrStdout(), map[string]any{
				"type_of_buyer":        opts.TypesOfBuyer,
				"procurement_purposes": opts.ProcurementPurposes,
				"end_user_types":       opts.EndUserTypes,
				"countries":            opts.Countries,
			})
		},
	}
}

func newSubmitCommand(current func() *session) *cobra.Command {
	var (
		flow     string
		step     int
		dataPath string
		filePath string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one step of the onboarding form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := current()
			ctx, gate := s.gate(cmd.Context())
			f, err := s.flow(flow, gate.Profile())
			if err != nil {
				return err
			}

			var next string
			seq := wizard.NewSequencer(f, gate, wizard.StepDeps{
				Submitter: s.backend,
				Uploader:  s.backend,
				Logger:    s.logger,
			}, func(path string) { next = path })

			d := seq.Resolve(f.StepPath(step))
			if d.Action == wizard.ActionRedirect {
				return fmt.Errorf("step %d is not available yet, continue at %s", step, d.Location)
			}
			component, err := seq.Component(step)
			if err != nil {
				return err
			}

			if dataPath != "" {
				raw, err := readInput(cmd.InOrStdin(), dataPath)
				if err != nil {
					return err
				}
				if err := component.ApplyYAML(raw); err != nil {
					return err
				}
			}
			if filePath != "" {
				if err := component.SelectFile(filePath); err != nil {
					return err
				}
			}

			if err := component.Submit(ctx); err != nil {
				return errors.New(component.Err())
			}

			out := map[string]any{"submitted": string(component.Kind())}
			if next != "" {
				out["next"] = next
			}
			if p := gate.Profile(); p != nil && p.Complete() {
				out["complete"] = true
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&flow, "flow", "", "buyer or seller (defaults to the profile's account type)")
	cmd.Flags().IntVar(&step, "step", onboarding.FirstStep, "step number (1-4)")
	cmd.Flags().StringVar(&dataPath, "data", "", "YAML file with form fields, - for stdin")
	cmd.Flags().StringVar(&filePath, "file", "", "document to attach to the step")
	return cmd
}

func newVerificationCommand(current func() *session) *cobra.Command {
	var (
		dataPath     string
		identityPath string
		yes          bool
	)

	machine := func(cmd *cobra.Command) (*wizard.VerificationMachine, error) {
		s := current()
		var confirm wizard.Confirmer = wizard.AlwaysConfirm
		if !yes {
			confirm = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
		}
		m := wizard.NewVerificationMachine(s.backend, s.store, confirm, s.logger)
		if _, err := m.Restore(cmd.Context()); err != nil {
			return nil, err
		}
		return m, nil
	}
	loadData := func(cmd *cobra.Command) (verification.Data, error) {
		var data verification.Data
		if dataPath == "" {
			return data, nil
		}
		raw, err := readInput(cmd.InOrStdin(), dataPath)
		if err != nil {
			return data, err
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return data, fmt.Errorf("decode verification data: %w", err)
		}
		return data, nil
	}
	report := func(cmd *cobra.Command, m *wizard.VerificationMachine, err error) error {
		if err != nil {
			if errors.Is(err, wizard.ErrNotConfirmed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "submission cancelled")
				return nil
			}
			return errors.New(wizard.ErrorMessage(err))
		}
		out := map[string]any{"state": string(m.State())}
		if snap, ok := m.Snapshot(); ok {
			out["allowed_events"] = snap.AllowedEvents
			if snap.BankStatus != "" {
				out["bank_status"] = string(snap.BankStatus)
			}
		}
		return writeYAML(cmd.OutOrStdout(), out)
	}

	root := &cobra.Command{
		Use:   "verification",
		Short: "Drive the seller verification step",
	}
	root.PersistentFlags().StringVar(&dataPath, "data", "", "YAML file with verification fields, - for stdin")
	root.PersistentFlags().BoolVar(&yes, "yes", false, "skip the submit confirmation prompt")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the local and server verification state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := machine(cmd)
			if err != nil {
				return err
			}
			snap, err := m.Sync(cmd.Context())
			if err != nil {
				return errors.New(wizard.ErrorMessage(err))
			}
			return writeYAML(cmd.OutOrStdout(), map[string]any{
				"local_state":  string(m.State()),
				"server_state": string(snap.State),
				"record":       snap,
			})
		},
	}

	cont := &cobra.Command{
		Use:   "continue",
		Short: "Advance to the next verification stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := machine(cmd)
			if err != nil {
				return err
			}
			data, err := loadData(cmd)
			if err != nil {
				return err
			}
			_, err = m.Continue(cmd.Context(), data)
			return report(cmd, m, err)
		},
	}

	back := &cobra.Command{
		Use:   "back",
		Short: "Return to the previous verification stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := machine(cmd)
			if err != nil {
				return err
			}
			_, err = m.Back(cmd.Context())
			return report(cmd, m, err)
		},
	}

	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit verification for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := machine(cmd)
			if err != nil {
				return err
			}
			data, err := loadData(cmd)
			if err != nil {
				return err
			}
			var identity *document.File
			if identityPath != "" {
				identity, err = openDocument(identityPath)
				if err != nil {
					return err
				}
			}
			_, err = m.Submit(cmd.Context(), data, identity)
			return report(cmd, m, err)
		},
	}
	submit.Flags().StringVar(&identityPath, "identity", "", "identity document to upload")

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Reopen a submitted verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := machine(cmd)
			if err != nil {
				return err
			}
			_, err = m.Edit(cmd.Context())
			return report(cmd, m, err)
		},
	}

	root.AddCommand(status, cont, back, submit, edit)
	return root
}

func promptConfirmer(in io.Reader, out io.Writer) wizard.Confirmer {
	reader := bufio.NewReader(in)
	return wizard.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func openDocument(path string) (*document.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return wizard.FileFromReader(filepath.Base(path), http.DetectContentType(raw), bytes.NewReader(raw)), nil
}
