package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/panel"
)

// imageLoader は編集・動画パネルの共通の読み込み口です。
type imageLoader interface {
	LoadURL(ctx context.Context, rawURL string) error
	LoadFile(ctx context.Context, path string) error
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var image, prompt, out string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "画像をプロンプトで編集する",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			src := cliSource(opts.cfg)
			sel := selectorFor(opts.cfg, src)
			if err := requireSelected(ctx, sel); err != nil {
				return err
			}
			a, err := newApp(ctx, opts.cfg, src)
			if err != nil {
				return err
			}
			defer a.Close()

			edit, _, _, err := a.panels(sel, nil)
			if err != nil {
				return err
			}
			if err := loadImage(ctx, edit, image); err != nil {
				return panelError(edit.State(), err)
			}
			if err := edit.Submit(ctx, prompt); err != nil {
				return panelError(edit.State(), err)
			}
			return writeResult(ctx, a, edit.State(), out, "edited")
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "編集する画像のパスまたは URL")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "編集内容")
	cmd.Flags().StringVarP(&out, "out", "o", "", "出力ファイル（省略時は拡張子から自動で決めます）")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newImageCmd(opts *rootOptions) *cobra.Command {
	var prompt, out string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "プロンプトから画像を生成する",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			src := cliSource(opts.cfg)
			sel := selectorFor(opts.cfg, src)
			if err := requireSelected(ctx, sel); err != nil {
				return err
			}
			a, err := newApp(ctx, opts.cfg, src)
			if err != nil {
				return err
			}
			defer a.Close()

			_, image, _, err := a.panels(sel, nil)
			if err != nil {
				return err
			}
			if err := image.Submit(ctx, prompt); err != nil {
				return panelError(image.State(), err)
			}
			return writeResult(ctx, a, image.State(), out, "generated")
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "生成する画像の説明")
	cmd.Flags().StringVarP(&out, "out", "o", "", "出力ファイル")
	return cmd
}

func newVideoCmd(opts *rootOptions) *cobra.Command {
	var image, prompt, out string

	cmd := &cobra.Command{
		Use:   "video",
		Short: "画像とプロンプトから動画を生成する（数分かかります）",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			src := cliSource(opts.cfg)
			a, err := newApp(ctx, opts.cfg, src)
			if err != nil {
				return err
			}
			defer a.Close()

			_, _, vp, err := a.panels(selectorFor(opts.cfg, src), os.Stderr)
			if err != nil {
				return err
			}
			if !vp.CheckCredential(ctx) {
				if err := vp.SelectCredential(ctx); err != nil {
					return panelError(vp.State(), err)
				}
			}
			if err := loadImage(ctx, vp, image); err != nil {
				return panelError(vp.State(), err)
			}
			if err := vp.Submit(ctx, prompt); err != nil {
				return panelError(vp.State(), err)
			}
			return writeResult(ctx, a, vp.State(), out, "video")
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "元画像のパスまたは URL")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "動きの説明")
	cmd.Flags().StringVarP(&out, "out", "o", "", "出力ファイル")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func loadImage(ctx context.Context, l imageLoader, ref string) error {
	if isRemote(ref) {
		return l.LoadURL(ctx, ref)
	}
	return l.LoadFile(ctx, ref)
}

func isRemote(ref string) bool {
	for _, scheme := range []string{"http://", "https://", "gs://"} {
		if strings.HasPrefix(ref, scheme) {
			return true
		}
	}
	return false
}

// panelError はパネルの利用者向けメッセージを優先してエラーにします。
func panelError(state panel.State, err error) error {
	if state.Error != "" {
		return fmt.Errorf("%s: %w", state.Error, err)
	}
	return err
}

// writeResult は結果の URI が指すメディアをファイルに書き出します。
func writeResult(ctx context.Context, a *app, state panel.State, out, base string) error {
	data, mimeType, err := resolveResult(ctx, a.blobs, state.ResultURI)
	if err != nil {
		return err
	}
	if out == "" {
		out = base + extensionFor(mimeType)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("出力ファイルの書き込みに失敗しました: %w", err)
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}

func resolveResult(ctx context.Context, blobs blob.Store, uri string) ([]byte, string, error) {
	if id, ok := blob.IDFromURI(uri); ok {
		b, err := blobs.Get(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return b.Data, b.MimeType, nil
	}
	img, err := domain.ParseDataURI(uri)
	if err != nil {
		return nil, "", err
	}
	data, err := img.Bytes()
	if err != nil {
		return nil, "", err
	}
	return data, img.MimeType, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
