// Copyright (C) 2024 Ksar Tools Contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command ksardump unwraps a bundle's envelope, parses its type tree
// and object table, and prints the objects it finds. With -fulfill it
// also decodes and dumps each object's value.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/ksar-tools/ksarfmt/asset"
	"github.com/ksar-tools/ksarfmt/cache"
	"github.com/ksar-tools/ksarfmt/envelope"
	"github.com/ksar-tools/ksarfmt/fsutil"
	"github.com/ksar-tools/ksarfmt/texture"
)

func main() {
	fulfill := flag.Bool("fulfill", false, "decode and dump every object's value, not just list it")
	cacheDir := flag.String("cache-dir", "", "if set, consult and populate a decode cache in this directory")
	textureDir := flag.String("texture-dir", "", "if set, hand every fulfilled object whose type name contains \"Texture\" to texture.NoOp, which reports its format as unsupported")
	verbose := flag.Bool("v", false, "log every promise as it is processed")
	flag.Parse()

	patterns := flag.Args()
	if len(patterns) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ksardump [-fulfill] [-cache-dir dir] [-v] <glob>...")
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", 0)

	var store *cache.Store
	if *cacheDir != "" {
		var err error
		store, err = cache.Open(*cacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ksardump: %s\n", err)
			os.Exit(1)
		}
	}

	paths, err := expandGlobs(patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ksardump: expanding input globs: %s\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "ksardump: no input files matched")
		os.Exit(1)
	}

	exit := 0
	for _, path := range paths {
		if err := dumpFile(path, *fulfill, *verbose, *textureDir, store, logger); err != nil {
			fmt.Fprintf(os.Stderr, "ksardump: %s: %s\n", path, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func expandGlobs(patterns []string) ([]string, error) {
	root := os.DirFS(".")
	var paths []string
	for _, pattern := range patterns {
		err := fsutil.WalkGlob(root, "", pattern, func(name string, file fs.File, err error) error {
			if err != nil {
				return err
			}
			if file != nil {
				file.Close()
			}
			paths = append(paths, name)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
	}
	return paths, nil
}

func dumpFile(path string, fulfill, verbose bool, textureDir string, store *cache.Store, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// The decode cache is keyed by a hash of the file's bytes, so an
	// entry written by one run is found again by the next.
	var bundleHash string
	if store != nil {
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		bundleHash = hex.EncodeToString(h.Sum(nil))
	}

	// No Decryptor is registered: this command never handles
	// encrypted bundles out of the box. See envelope.Decryptor.
	pipeline := envelope.NewPipeline(nil)
	streams, err := pipeline.Run(path, f)
	if err != nil {
		return fmt.Errorf("unwrapping envelope: %w", err)
	}

	for _, stream := range streams {
		a, err := asset.Parse(stream.Src, stream.Origin)
		if err != nil {
			return fmt.Errorf("%s: parsing asset: %w", stream.Name, err)
		}
		fmt.Printf("%s/%s: version=%q platform=%d objects=%d id=%s\n",
			path, stream.Name, a.Version, a.Platform, len(a.Objects()), a.ID)

		for _, p := range a.Objects() {
			if verbose {
				logger.Printf("%s/%s: %s %s", path, stream.Name, p.PathID(), p.TypeName())
			}
			fmt.Printf("  %s %s\n", p.PathID(), p.TypeName())
			if !fulfill {
				continue
			}
			v, err := fulfillWithCache(bundleHash+"/"+stream.Name, p, store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ksardump: %s/%s: %s: %s\n", path, stream.Name, p.PathID(), err)
				continue
			}
			fmt.Print("    ")
			writeValue(os.Stdout, v)
			fmt.Println()

			if textureDir != "" {
				if err := encodeTextureIfApplicable(p, v, texture.NoOp{}, textureDir); err != nil {
					fmt.Fprintf(os.Stderr, "ksardump: %s/%s: %s: %s\n", path, stream.Name, p.PathID(), err)
				}
			}
		}
	}
	return nil
}

func fulfillWithCache(bundleHash string, p asset.Promise, store *cache.Store) (asset.Value, error) {
	if store != nil {
		if v, ok, err := store.Get(bundleHash, p.PathID()); err == nil && ok {
			return v, nil
		}
	}
	v, err := p.Fulfill()
	if err != nil {
		return asset.Value{}, err
	}
	if store != nil {
		_ = store.Put(bundleHash, p.PathID(), v)
	}
	return v, nil
}
