package spells

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/vorteil/vnif/pkg/nif"
	"github.com/vorteil/vnif/pkg/nifcheck"
)

// walkFiltered runs the engine walker with the toaster's glob filter
// applied on top of the extension filter.
func walkFiltered(top string, fn nif.WalkFileFunc) error {

	filter, err := pathFilter()
	if err != nil {
		return err
	}

	return nif.WalkFile(top, func(wf *nif.WalkedFile) error {
		if !filter(wf.Path) {
			return nil
		}
		return fn(wf)
	}, nif.WalkOptions{
		OnError: func(path string, err error) error {
			log.Warnf("%s: %v", path, err)
			return nil
		},
	})
}

var readCmd = &cobra.Command{
	Use:   "read PATH",
	Short: "Read every nif file under PATH and report its shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		progress := log.NewProgress("reading", "files", 0)
		defer progress.Finish(true)

		files := 0
		err := walkFiltered(args[0], func(wf *nif.WalkedFile) error {
			files++
			progress.Increment(1)

			blocks := 0
			for _, root := range wf.Roots {
				blocks += len(root.Tree(nif.NewContext(wf.Version, wf.UserVersion)))
			}
			log.Infof("%s: version 0x%08X, %d roots, %d blocks",
				wf.Path, wf.Version, len(wf.Roots), blocks)
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("read %d files", files)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Dump the block tree of a single nif file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		version, userVersion := nif.GetVersion(f)
		switch version {
		case nif.VersionNotNif:
			return fmt.Errorf("%s is not a nif file", args[0])
		case nif.VersionUnsupported:
			return fmt.Errorf("%s has an unsupported version", args[0])
		}

		roots, err := nif.Read(uint32(version), userVersion, f)
		if err != nil {
			return err
		}

		c := nif.NewContext(uint32(version), userVersion)
		dumper := spew.ConfigState{Indent: "  ", MaxDepth: 4}
		for _, root := range roots {
			for _, blk := range root.Tree(c) {
				fmt.Printf("%s %q\n", blk.ClassName(), blockName(blk))
				if log.IsDebugEnabled() {
					dumper.Dump(blk)
				}
			}
		}
		return nil
	},
}

func blockName(b *nif.Block) string {
	if _, ok := b.TryGet("Name"); ok {
		return b.Str("Name")
	}
	return ""
}

var checkCmd = &cobra.Command{
	Use:   "check-tangentspace PATH",
	Short: "Cross-check stored tangent space data under PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		checked := 0
		err := walkFiltered(args[0], func(wf *nif.WalkedFile) error {
			c := nif.NewContext(wf.Version, wf.UserVersion)
			var reports []*nifcheck.Report
			for _, root := range wf.Roots {
				for _, blk := range root.Tree(c) {
					report, err := nifcheck.CheckTangentSpace(blk)
					if err != nil {
						log.Errorf("%s: %s: %v", wf.Path, blk.ClassName(), err)
						continue
					}
					if report != nil {
						checked++
						reports = append(reports, report)
					}
				}
			}
			nifcheck.Render(os.Stdout, wf.Path, reports)
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("checked tangent space on %d geometry blocks", checked)
		return nil
	},
}
