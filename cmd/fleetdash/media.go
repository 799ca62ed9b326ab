package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fleetdash/internal/forms"
	"fleetdash/internal/pages"
	"fleetdash/internal/views"
)

func videosCommand(o *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "videos", Short: "Manage the video library"}

	var active bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List videos",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			p := pages.NewVideos(s.env)
			load := p.Load
			if active {
				load = p.LoadActive
			}
			if err := load(c.Context()); err != nil {
				return err
			}
			rows := p.Rows()
			return s.emit(rows, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tFILENAME\tBRAND\tEXPIRES\tSTATE")
				for _, r := range rows {
					state := "active"
					if r.Expired {
						state = "expired"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Video.ID, r.Video.Filename, r.BrandName, r.Expiry, state)
				}
			})
		},
	}

	list.Flags().BoolVar(&active, "active", false, "Only videos that are still playing")

	var name, description, brand, expires string
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			fh, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fh.Close()
			info, err := fh.Stat()
			if err != nil {
				return err
			}
			f := forms.VideoForm{Filename: name, Description: description, BrandID: brand}
			if expires != "" {
				t, err := time.Parse("2006-01-02", expires)
				if err != nil {
					return fmt.Errorf("--expires: %w", err)
				}
				f.ExpiryDate = &t
			}
			f = f.WithFile(&forms.Attachment{Name: filepath.Base(args[0]), Size: info.Size(), R: fh})

			done := make(chan struct{})
			go reportProgress(s, done)
			v, err := pages.NewVideos(s.env).Upload(c.Context(), f)
			close(done)
			if err != nil || v == nil {
				return err
			}
			return s.emit(v, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "id\t%s\nfilename\t%s\n", v.ID, v.Filename)
			})
		},
	}
	upload.Flags().StringVar(&name, "name", "", "Display filename (defaults to the file's base name)")
	upload.Flags().StringVar(&description, "description", "", "Description")
	upload.Flags().StringVar(&brand, "brand", "", "Brand id")
	upload.Flags().StringVar(&expires, "expires", "", "Expiry date (YYYY-MM-DD)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return quiet(pages.NewVideos(s.env).Delete(c.Context(), args[0]))
		},
	}

	cmd.AddCommand(list, upload, del)
	return cmd
}

// reportProgress prints the upload percentage until done is closed.
func reportProgress(s *session, done <-chan struct{}) {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	last := -1
	for {
		select {
		case <-done:
			if last >= 0 {
				fmt.Fprintln(os.Stderr)
			}
			return
		case <-t.C:
			if pct := s.env.VideoStore.UploadProgress(); pct != last && pct > 0 {
				last = pct
				fmt.Fprintf(os.Stderr, "\ruploading %3d%%", pct)
			}
		}
	}
}

func brandsCommand(o *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "brands", Short: "Manage advertiser brands"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List brands with their video counts",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			p := pages.NewBrands(s.env)
			if err := p.Load(c.Context()); err != nil {
				return err
			}
			rows := p.Rows()
			return s.emit(rows, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tVIDEOS")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.Brand.ID, r.Brand.Name, r.Brand.Phone, r.Brand.Email, r.VideoCount)
				}
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a brand and its videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			v, err := pages.NewBrands(s.env).Show(c.Context(), args[0])
			if err != nil {
				return err
			}
			return s.emit(v, func(w *tabwriter.Writer) {
				b := v.Brand
				fmt.Fprintf(w, "id\t%s\nname\t%s\nphone\t%s\nemail\t%s\naddress\t%s\n", b.ID, b.Name, b.Phone, b.Email, b.Address)
				fmt.Fprintln(w, "\nVIDEO\tFILENAME\tEXPIRES")
				for _, x := range v.Videos {
					fmt.Fprintf(w, "%s\t%s\t%s\n", x.ID, x.Filename, views.FormatDate(x.ExpiryDate))
				}
			})
		},
	}

	var f forms.BrandForm
	var logo string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a brand",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			if logo != "" {
				fh, err := os.Open(logo)
				if err != nil {
					return err
				}
				defer fh.Close()
				f.Logo = &forms.Attachment{Name: filepath.Base(logo), R: fh}
			}
			b, err := pages.NewBrands(s.env).Create(c.Context(), f)
			if err != nil || b == nil {
				return err
			}
			return s.emit(b, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "id\t%s\nname\t%s\n", b.ID, b.Name)
			})
		},
	}
	add.Flags().StringVar(&f.Name, "name", "", "Brand name")
	add.Flags().StringVar(&f.Phone, "phone", "", "Phone number")
	add.Flags().StringVar(&f.Email, "email", "", "Contact email")
	add.Flags().StringVar(&f.Address, "address", "", "Address")
	add.Flags().StringVar(&f.Description, "description", "", "Description")
	add.Flags().StringVar(&logo, "logo", "", "Logo image file")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return quiet(pages.NewBrands(s.env).Delete(c.Context(), args[0]))
		},
	}

	cmd.AddCommand(list, show, add, del)
	return cmd
}
