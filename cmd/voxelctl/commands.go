package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/annel0/voxel-editor/internal/config"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/project"
	"github.com/annel0/voxel-editor/internal/syncclient"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/spf13/cobra"
)

// cli - общее состояние команд: адрес сервера и таймаут
type cli struct {
	serverURL string
	timeout   time.Duration
	client    *syncclient.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "voxelctl",
		Short:         "Управление сервером воксельной сетки",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if c.serverURL == "" {
				c.serverURL = cfg.Client.GetServerURL()
			}
			if c.timeout <= 0 {
				c.timeout = cfg.Client.GetTimeout()
			}
			c.client = syncclient.NewClient(c.serverURL, syncclient.WithTimeout(c.timeout))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.serverURL, "server", "s", "", "адрес сервера (VOXEL_SERVER_URL)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "таймаут запроса (VOXEL_CLIENT_TIMEOUT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "grid",
			Short: "Показать непустые ячейки сетки",
			Args:  cobra.NoArgs,
			RunE:  c.runGrid,
		},
		&cobra.Command{
			Use:   "set <x> <y> <z> [color]",
			Short: "Записать ячейку (цвет по умолчанию 1)",
			Args:  cobra.RangeArgs(3, 4),
			RunE:  c.runSet,
		},
		&cobra.Command{
			Use:   "remove <x> <y> <z>",
			Short: "Очистить ячейку",
			Args:  cobra.ExactArgs(3),
			RunE:  c.runRemove,
		},
		&cobra.Command{
			Use:   "resize <size>",
			Short: "Сменить размер сетки (сетка очищается)",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runResize,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Очистить сетку, сохранив размер",
			Args:  cobra.NoArgs,
			RunE:  c.runReset,
		},
		&cobra.Command{
			Use:   "save [name]",
			Short: "Сохранить проект на сервере",
			Args:  cobra.MaximumNArgs(1),
			RunE:  c.runSave,
		},
		&cobra.Command{
			Use:   "load <filename>",
			Short: "Загрузить серверный проект",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runLoad,
		},
		&cobra.Command{
			Use:   "projects",
			Short: "Список серверных проектов",
			Args:  cobra.NoArgs,
			RunE:  c.runProjects,
		},
		&cobra.Command{
			Use:   "palette",
			Short: "Показать палитру",
			Args:  cobra.NoArgs,
			RunE:  c.runPalette,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Состояние сервера",
			Args:  cobra.NoArgs,
			RunE:  c.runStats,
		},
		&cobra.Command{
			Use:   "pull <file>",
			Short: "Сохранить сетку сервера в локальный файл (.json или .json.gz)",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runPull,
		},
		&cobra.Command{
			Use:   "push <file>",
			Short: "Отправить локальный проект на сервер",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runPush,
		},
	)
	return root
}

func (c *cli) ctx(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func (c *cli) runGrid(cmd *cobra.Command, args []string) error {
	dense, err := c.client.QueryGrid(c.ctx(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cells := dense.Cells()
	fmt.Fprintf(out, "Размер %d, вокселей %d\n", dense.Size(), len(cells))
	for _, cell := range cells {
		fmt.Fprintf(out, "  %s = %d\n", cell.Index, cell.ColorIndex)
	}
	return nil
}

func (c *cli) runSet(cmd *cobra.Command, args []string) error {
	cell, err := parseCell(args[:3])
	if err != nil {
		return err
	}
	color := 1
	if len(args) == 4 {
		if color, err = strconv.Atoi(args[3]); err != nil {
			return fmt.Errorf("цвет %q: %w", args[3], err)
		}
	}
	return c.update(cmd, cell, color)
}

func (c *cli) runRemove(cmd *cobra.Command, args []string) error {
	cell, err := parseCell(args)
	if err != nil {
		return err
	}
	return c.update(cmd, cell, palette.Empty)
}

func (c *cli) update(cmd *cobra.Command, cell vec.Vec3, color int) error {
	upd, err := c.client.UpdateVoxel(c.ctx(cmd), cell, color)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", upd.Cell, upd.Value)
	return nil
}

func (c *cli) runResize(cmd *cobra.Command, args []string) error {
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("размер %q: %w", args[0], err)
	}
	return c.resize(cmd, size)
}

func (c *cli) runReset(cmd *cobra.Command, args []string) error {
	dense, err := c.client.QueryGrid(c.ctx(cmd))
	if err != nil {
		return err
	}
	return c.resize(cmd, dense.Size())
}

func (c *cli) resize(cmd *cobra.Command, size int) error {
	got, err := c.client.ResizeGrid(c.ctx(cmd), size)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Размер сетки: %d\n", got)
	return nil
}

func (c *cli) runSave(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	filename, err := c.client.SaveProject(c.ctx(cmd), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Сохранено: %s\n", filename)
	return nil
}

func (c *cli) runLoad(cmd *cobra.Command, args []string) error {
	resp, err := c.client.LoadProject(c.ctx(cmd), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Загружено: %s (размер %d, вокселей %d)\n", args[0], resp.GridSize, len(resp.Grid.Cells()))
	return nil
}

func (c *cli) runProjects(cmd *cobra.Command, args []string) error {
	names, err := c.client.ListProjects(c.ctx(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "Проектов нет")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func (c *cli) runPalette(cmd *cobra.Command, args []string) error {
	entries, err := c.client.Palette(c.ctx(cmd))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%d  %s  %s\n", e.Index, e.Color, e.Name)
	}
	return nil
}

func (c *cli) runStats(cmd *cobra.Command, args []string) error {
	s, err := c.client.Stats(c.ctx(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Аптайм:     %s\n", (time.Duration(s.UptimeSeconds) * time.Second).String())
	fmt.Fprintf(out, "Сетка:      %d (вокселей %d, версия %d)\n", s.GridSize, s.VoxelCount, s.Version)
	fmt.Fprintf(out, "Память:     %.2f MB\n", s.MemoryMB)
	fmt.Fprintf(out, "CPU:        %.2f%%\n", s.CPUPercent)
	fmt.Fprintf(out, "Горутины:   %d\n", s.Goroutines)
	return nil
}

func (c *cli) runPull(cmd *cobra.Command, args []string) error {
	dense, err := c.client.QueryGrid(c.ctx(cmd))
	if err != nil {
		return err
	}
	size := dense.Size()
	if err := project.Save(args[0], project.Serialize(dense.Cells(), size, palette.Default())); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Сетка %d сохранена в %s\n", size, args[0])
	return nil
}

// runPush меняет размер сервера под проект и записывает непустые ячейки
func (c *cli) runPush(cmd *cobra.Command, args []string) error {
	doc, err := project.Load(args[0])
	if err != nil {
		return err
	}
	ctx := c.ctx(cmd)
	if _, err := c.client.ResizeGrid(ctx, doc.GridSize); err != nil {
		return err
	}
	return pushCells(ctx, c.client, doc.Grid.Cells(), cmd.OutOrStdout())
}

func pushCells(ctx context.Context, backend syncclient.Backend, cells []voxelgrid.Cell, out io.Writer) error {
	for i, cell := range cells {
		if _, err := backend.UpdateVoxel(ctx, cell.Index, cell.ColorIndex); err != nil {
			return fmt.Errorf("ячейка %d из %d: %w", i+1, len(cells), err)
		}
	}
	fmt.Fprintf(out, "Отправлено вокселей: %d\n", len(cells))
	return nil
}

func parseCell(args []string) (vec.Vec3, error) {
	var xyz [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("координата %q: %w", a, err)
		}
		xyz[i] = v
	}
	return vec.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
