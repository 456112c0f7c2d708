package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
)

// seedFile is the layout of the module seed file:
//
//	modules:
//	  - title: Fundamentos
//	    order: 1
//	    status: in_progress
//	    description: ...
type seedFile struct {
	Modules []academy.NewModule `yaml:"modules"`
}

func (cli *commandLine) seedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update the academy modules listed in a YAML file (matched by order)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			return cli.seed(r)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (cli *commandLine) seed(r io.Reader) error {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return errors.Wrap(err, "decoding seed file")
	}
	if len(sf.Modules) == 0 {
		return errors.New("seed file lists no modules")
	}

	ctx, err := cli.context()
	if err != nil {
		return err
	}
	mods, err := cli.academySvc.SeedModules(ctx, sf.Modules)
	for _, m := range mods {
		fmt.Fprintf(cli.out, "%2d. %s (%s)\n", m.Order, m.Title, m.Status)
	}
	return err
}
