package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dmitrijs2005/gophmedia/internal/attachcipher"
	"github.com/dmitrijs2005/gophmedia/internal/common"
	"github.com/dmitrijs2005/gophmedia/internal/filex"
	"github.com/dmitrijs2005/gophmedia/internal/transfer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// parseKey decodes hex key material and validates its length, so a bad flag
// is an error rather than a panic inside the codec.
func parseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("--key-hex: %w", err)
	}
	if err := attachcipher.CheckKey(key); err != nil {
		return nil, fmt.Errorf("--key-hex: %w", err)
	}
	return key, nil
}

func newEncryptCommand() *cobra.Command {
	var keyHex string
	var progress bool

	cmd := &cobra.Command{
		Use:   "encrypt IN OUT",
		Short: "Seal a file with 64 bytes of hex key material",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(keyHex)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(key)

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			pr, pw := io.Pipe()
			var dst io.Writer = pw
			// progress counts sealed bytes, whose total is known up front
			if progress {
				info, err := in.Stat()
				if err != nil {
					return err
				}
				total := attachcipher.CiphertextLength(info.Size())
				dst = transfer.NewWriter(pw, total, newProgressPrinter(cmd.ErrOrStderr(), "encrypt"))
			}

			var g errgroup.Group
			g.Go(func() error {
				_, err := attachcipher.Encrypt(dst, in, key)
				pw.CloseWithError(err)
				return err
			})

			_, werr := filex.WriteFileAtomic(args[1], pr)
			// unblocks the encoder if the output failed before draining the pipe
			pr.CloseWithError(werr)
			eerr := g.Wait()
			if werr != nil {
				return werr
			}
			return eerr
		},
	}
	cmd.Flags().StringVarP(&keyHex, "key-hex", "k", "", "128 hex digits: cipher key then MAC key")
	cmd.Flags().BoolVar(&progress, "progress", false, "print sealed-output progress to stderr")
	_ = cmd.MarkFlagRequired("key-hex")
	return cmd
}

func newDecryptCommand() *cobra.Command {
	var keyHex string

	cmd := &cobra.Command{
		Use:   "decrypt IN OUT",
		Short: "Verify and open a sealed file; OUT may be - for stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(keyHex)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(key)

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			info, err := in.Stat()
			if err != nil {
				return err
			}

			r, err := attachcipher.NewReader(in, info.Size(), key)
			if err != nil {
				return err
			}
			_, err = writeOutput(cmd.OutOrStdout(), args[1], r)
			return err
		},
	}
	cmd.Flags().StringVarP(&keyHex, "key-hex", "k", "", "128 hex digits: cipher key then MAC key")
	_ = cmd.MarkFlagRequired("key-hex")
	return cmd
}

func newLengthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "length N",
		Short: "Print the sealed size of an N byte plaintext",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid length %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), attachcipher.CiphertextLength(n))
			return nil
		},
	}
}
