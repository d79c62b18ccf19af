// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configedit implements the "config edit" command.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/standard/xos"
	"github.com/bufdev/subctl/internal/subctl/subctlconfig"
	"github.com/bufdev/subctl/internal/subctl/subctlpath"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config edit command that opens the configuration file in an editor.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Edit the configuration file in $EDITOR",
		Long: `Edit the configuration file in $EDITOR.

Creates the file from the default template first if it does not exist.
The file is validated after the editor exits.`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the subctl directory containing subctl.yaml.
	Dir string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	editor := container.Env("EDITOR")
	if editor == "" {
		return errors.New("EDITOR environment variable is not set")
	}
	dirPath, err := xos.ExpandPath(flags.Dir, container.Env)
	if err != nil {
		return err
	}
	configFilePath := subctlpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(configFilePath); errors.Is(err, fs.ErrNotExist) {
		if _, _, err := subctlconfig.InitConfig(dirPath); err != nil {
			return err
		}
	}
	cmd := exec.CommandContext(ctx, editor, configFilePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	if err := subctlconfig.ValidateConfig(dirPath); err != nil {
		return fmt.Errorf("edited configuration is invalid: %w", err)
	}
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", configFilePath)
	return err
}
