package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"
	"fleetdash/internal/views"
)

func dashboardCommand(o *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show fleet and media totals",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			sum, err := pages.NewDashboard(s.env).Load(c.Context())
			if err != nil {
				return err
			}
			return s.emit(sum, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "devices\t%d\n", sum.Devices.Total)
				fmt.Fprintf(w, "  active\t%d\n", sum.Devices.Active)
				fmt.Fprintf(w, "  inactive\t%d\n", sum.Devices.Inactive)
				fmt.Fprintf(w, "  warning\t%d\n", sum.Devices.Warning)
				fmt.Fprintf(w, "  maintenance\t%d\n", sum.Devices.Maintenance)
				fmt.Fprintf(w, "uptime\t%d%%\n", sum.UptimePercent)
				fmt.Fprintf(w, "videos\t%d (%d active, %d expired)\n", sum.TotalVideos, sum.ActiveVideos, sum.ExpiredVideos)
				fmt.Fprintf(w, "brands\t%d\n", sum.TotalBrands)
			})
		},
	}
}

func printDevices(w *tabwriter.Writer, list []models.Device) {
	now := time.Now()
	fmt.Fprintln(w, "ID\tDEVICE ID\tNAME\tVEHICLE\tLOCATION\tOWNER\tSTATUS\tLAST SEEN")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.RpiID, d.Name, d.VehicleNo, d.Location, d.OwnerName, d.Status, views.TimeAgo(d.LastSeen, now))
	}
}

func devicesCommand(o *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "devices", Short: "Manage fleet devices"}

	var sortKey string
	var desc, offline bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List devices",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			p := pages.NewDevices(s.env, nil)
			if offline {
				if s.snap == nil {
					return fmt.Errorf("--offline needs a database")
				}
				if _, err := s.snap.Into(s.env.DeviceStore); err != nil {
					return err
				}
			} else {
				if err := p.Load(c.Context()); err != nil {
					return err
				}
				if s.snap != nil {
					_ = s.snap.SaveDevices(s.env.DeviceStore.Devices())
				}
			}
			st := views.DefaultDeviceSort()
			if sortKey != "" {
				st = views.SortState{Key: sortKey, Dir: views.Asc}
				if desc {
					st.Dir = views.Desc
				}
			}
			rows := p.Rows(st)
			return s.emit(rows, func(w *tabwriter.Writer) { printDevices(w, rows) })
		},
	}
	list.Flags().StringVar(&sortKey, "sort", "", "Sort column, newest last_seen first when unset (rpi_name, rpi_id, location, vehicle_no, owner_name, rpi_status, last_seen, createdAt, updatedAt)")
	list.Flags().BoolVar(&desc, "desc", false, "Sort descending (with --sort)")
	list.Flags().BoolVar(&offline, "offline", false, "Show the last saved snapshot instead of asking the API")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			d, err := pages.NewDevices(s.env, nil).Open(c.Context(), models.DeviceID(args[0]))
			if err != nil {
				return err
			}
			return s.emit(d, func(w *tabwriter.Writer) { printDevices(w, []models.Device{*d}) })
		},
	}

	var f forms.DeviceForm
	var status string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a device",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			f.Status = models.DeviceStatus(status)
			d, err := pages.NewDevices(s.env, nil).Create(c.Context(), f)
			if err != nil || d == nil {
				return err
			}
			return s.emit(d, func(w *tabwriter.Writer) { printDevices(w, []models.Device{*d}) })
		},
	}
	add.Flags().StringVar(&f.RpiID, "rpi-id", "", "Hardware device id")
	add.Flags().StringVar(&f.Name, "name", "", "Device name")
	add.Flags().StringVar(&f.VehicleNo, "vehicle", "", "Vehicle number")
	add.Flags().StringVar(&f.Location, "location", "", "Location")
	add.Flags().StringVar(&f.OwnerName, "owner", "", "Owner name")
	add.Flags().StringVar(&f.OwnerPhone, "owner-phone", "", "Owner phone")
	add.Flags().StringVar(&f.WifiSSID, "wifi-ssid", "", "WiFi SSID")
	add.Flags().StringVar(&f.WifiPassword, "wifi-password", "", "WiFi password")
	add.Flags().StringVar(&f.Display, "display", "", "Display configuration as JSON")
	add.Flags().StringVar(&status, "status", string(models.DeviceActive), "Initial status")

	setStatus := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set one device's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			st := models.DeviceStatus(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return pages.NewDevices(s.env, nil).SetStatus(c.Context(), models.DeviceID(args[0]), st)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a device between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			p := pages.NewDevices(s.env, nil)
			if err := p.Load(c.Context()); err != nil {
				return err
			}
			return p.ToggleStatus(c.Context(), models.DeviceID(args[0]))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return quiet(pages.NewDevices(s.env, nil).Delete(c.Context(), models.DeviceID(args[0])))
		},
	}

	cmd.AddCommand(list, get, add, setStatus, toggle, del)
	cmd.AddCommand(bulkCommands(o)...)
	cmd.AddCommand(healthCommands(o)...)
	return cmd
}

func bulkCommands(o *cliOptions) []*cobra.Command {
	bulkStatus := &cobra.Command{
		Use:   "bulk-status <status> <id>...",
		Short: "Set the status of several devices",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			st := models.DeviceStatus(args[0])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[0])
			}
			return pages.NewDevices(s.env, selection(args[1:])).BulkStatus(c.Context(), st)
		},
	}

	bulkDelete := &cobra.Command{
		Use:   "bulk-delete <id>...",
		Short: "Delete several devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return quiet(pages.NewDevices(s.env, selection(args)).BulkDelete(c.Context()))
		},
	}

	var wifi models.WifiCredential
	command := &cobra.Command{
		Use:   "command <reboot|update_wifi|sync> <id>...",
		Short: "Send a remote command to several devices",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			op := pages.BulkOp(args[0])
			var payload *models.WifiCredential
			if op == pages.OpUpdateWifi {
				if wifi.SSID == "" {
					return fmt.Errorf("update_wifi needs --ssid")
				}
				payload = &wifi
			}
			p := pages.NewDevices(s.env, selection(args[1:]))
			// commands address hardware ids, so the list is needed first
			if err := p.Load(c.Context()); err != nil {
				return err
			}
			return p.BulkCommand(c.Context(), op, payload)
		},
	}
	command.Flags().StringVar(&wifi.SSID, "ssid", "", "WiFi SSID for update_wifi")
	command.Flags().StringVar(&wifi.Password, "wifi-password", "", "WiFi password for update_wifi")

	return []*cobra.Command{bulkStatus, bulkDelete, command}
}

func selection(ids []string) *pages.Selection {
	sel := pages.NewSelection()
	for _, id := range ids {
		sel.Add(models.DeviceID(id))
	}
	return sel
}

func healthCommands(o *cliOptions) []*cobra.Command {
	var q models.HealthQuery
	health := &cobra.Command{
		Use:   "health",
		Short: "Show fleet health",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			v, err := pages.NewHealth(s.env).Load(c.Context(), q)
			if v == nil {
				return err
			}
			// a partial view is still printed when one of the fetches failed
			if eerr := s.emit(v, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "DEVICE ID\tNAME\tHEALTH")
				for _, r := range v.Rows {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.Device.RpiID, r.Device.Name, r.Class)
				}
				k := v.Counts
				fmt.Fprintf(w, "\nhealthy %d, warning %d, critical %d, offline %d\n", k.Healthy, k.Warning, k.Critical, k.Offline)
			}); eerr != nil {
				return eerr
			}
			return err
		},
	}
	health.Flags().StringVar(&q.Status, "status", "", "Filter by status")
	health.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of devices")

	show := &cobra.Command{
		Use:   "show <rpi-id>",
		Short: "Show one device's details and recent health",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			v, err := pages.NewDeviceDetails(s.env).Load(c.Context(), models.HardwareID(args[0]))
			if err != nil {
				return err
			}
			d := v.Details
			return s.emit(v, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "device id\t%s\n", d.RpiID)
				fmt.Fprintf(w, "name\t%s\n", d.Device.Name)
				fmt.Fprintf(w, "location\t%s\n", d.Device.Location)
				fmt.Fprintf(w, "status\t%s\n", d.Status)
				fmt.Fprintf(w, "online\t%t\n", d.IsOnline)
				fmt.Fprintf(w, "last seen\t%s\n", v.LastSeen)
				fmt.Fprintln(w, "\nTIME\tCPU\tMEMORY\tDISK\tTEMP")
				for _, h := range v.History {
					fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.1f\n", h.Timestamp.Format(time.RFC3339), h.CPUUsage, h.MemoryUsage, h.DiskUsage, h.Temperature)
				}
			})
		},
	}

	detailsAction := func(use, short string, run func(*pages.DeviceDetails, *cobra.Command) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <rpi-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				s, err := o.open()
				if err != nil {
					return err
				}
				p := pages.NewDeviceDetails(s.env)
				if _, err := p.Load(c.Context(), models.HardwareID(args[0])); err != nil {
					return err
				}
				return quiet(run(p, c))
			},
		}
	}
	reboot := detailsAction("reboot", "Reboot a device", func(p *pages.DeviceDetails, c *cobra.Command) error {
		return p.Reboot(c.Context())
	})
	sync := detailsAction("sync", "Ask a device to sync its videos", func(p *pages.DeviceDetails, c *cobra.Command) error {
		return p.Sync(c.Context())
	})
	wifi := detailsAction("wifi", "Show a device's stored WiFi credentials", func(p *pages.DeviceDetails, c *cobra.Command) error {
		w, err := p.WifiDetails(c.Context())
		if err != nil || w == nil {
			return err
		}
		fmt.Printf("ssid\t%s\npassword\t%s\n", w.WifiSSID, w.WifiPassword)
		return nil
	})

	return []*cobra.Command{health, show, reboot, sync, wifi}
}
