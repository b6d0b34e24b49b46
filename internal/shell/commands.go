package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/medash/medash-go/internal/model"
)

type command struct {
	usage      string
	help       string
	minArgs    int
	needsLogin bool
	run        func(s *Shell, ctx context.Context, args []string) error
}

var errNoCurrent = errors.New("no dashboard selected, use: select <id>")

var commandOrder = []string{
	"login", "logout", "whoami",
	"list", "create", "select", "show", "rename", "delete",
	"add", "title", "move", "resize", "config", "view", "rm",
	"share", "unshare", "theme", "save", "load", "help", "exit",
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":   {usage: "login <email>", help: "Sign in. The first login creates sample dashboards.", minArgs: 1, run: (*Shell).login},
		"logout":  {usage: "logout", help: "Sign out. Saved dashboards are kept.", run: (*Shell).logout},
		"whoami":  {usage: "whoami", help: "Show the signed-in user.", needsLogin: true, run: (*Shell).whoami},
		"list":    {usage: "list", help: "List dashboards. * marks the current one.", needsLogin: true, run: (*Shell).list},
		"create":  {usage: `create <name> ["description"]`, help: "Create, save and select a dashboard.", minArgs: 1, needsLogin: true, run: (*Shell).create},
		"select":  {usage: "select <id>", help: "Make a dashboard current.", minArgs: 1, needsLogin: true, run: (*Shell).selectDashboard},
		"show":    {usage: "show", help: "Show the current dashboard and its panels.", needsLogin: true, run: (*Shell).show},
		"rename":  {usage: `rename <name> ["description"]`, help: "Rename the current dashboard.", minArgs: 1, needsLogin: true, run: (*Shell).rename},
		"delete":  {usage: "delete <id>", help: "Delete a dashboard.", minArgs: 1, needsLogin: true, run: (*Shell).deleteDashboard},
		"add":     {usage: "add <type> <title> [w h]", help: "Add a panel below the existing ones. Types: " + panelTypeList(), minArgs: 2, needsLogin: true, run: (*Shell).addPanel},
		"title":   {usage: "title <panel> <title>", help: "Retitle a panel.", minArgs: 2, needsLogin: true, run: (*Shell).titlePanel},
		"move":    {usage: "move <panel> <x> <y>", help: "Move a panel on the grid.", minArgs: 3, needsLogin: true, run: (*Shell).movePanel},
		"resize":  {usage: "resize <panel> <w> <h>", help: "Resize a panel.", minArgs: 3, needsLogin: true, run: (*Shell).resizePanel},
		"config":  {usage: `config <panel> '<json>'`, help: "Replace a panel's config. The JSON is checked against the panel type.", minArgs: 2, needsLogin: true, run: (*Shell).configPanel},
		"view":    {usage: "view <panel> [--edit]", help: "Render a panel.", minArgs: 1, needsLogin: true, run: (*Shell).viewPanel},
		"rm":      {usage: "rm <panel>", help: "Remove a panel.", minArgs: 1, needsLogin: true, run: (*Shell).removePanel},
		"share":   {usage: "share [id]", help: "Make a dashboard public and print its link.", needsLogin: true, run: (*Shell).share},
		"unshare": {usage: "unshare [id]", help: "Make a dashboard private again.", needsLogin: true, run: (*Shell).unshare},
		"theme":   {usage: "theme [light|dark]", help: "Show or set the theme.", run: (*Shell).theme},
		"save":    {usage: "save", help: "Write all dashboards to storage.", needsLogin: true, run: (*Shell).save},
		"load":    {usage: "load", help: "Reload dashboards from storage, dropping unsaved changes.", needsLogin: true, run: (*Shell).load},
		"help":    {usage: "help [command]", help: "Show help.", run: (*Shell).printHelp},
		"exit":    {usage: "exit", help: "Leave the shell.", run: func(*Shell, context.Context, []string) error { return ErrExit }},
	}
	commands["quit"] = commands["exit"]
}

func panelTypeList() string {
	names := make([]string, len(model.PanelTypes))
	for i, t := range model.PanelTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (s *Shell) login(ctx context.Context, args []string) error {
	resp, err := s.sessions.Login(ctx, args[0])
	if err != nil {
		return err
	}
	s.printf("Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func (s *Shell) logout(_ context.Context, _ []string) error {
	s.sessions.Logout()
	s.printf("Logged out\n")
	return nil
}

func (s *Shell) whoami(_ context.Context, _ []string) error {
	user, err := s.sessions.CurrentUser()
	if err != nil {
		return err
	}
	s.printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func (s *Shell) list(_ context.Context, _ []string) error {
	all := s.dashboards.Dashboards()
	if len(all) == 0 {
		s.printf("No dashboards\n")
		return nil
	}

	cur, _ := s.dashboards.CurrentDashboard()
	for _, d := range all {
		marker := " "
		if d.ID == cur.ID {
			marker = "*"
		}
		visibility := ""
		if d.IsPublic {
			visibility = " [public]"
		}
		s.printf("%s %s  %s (%d panels)%s\n", marker, d.ID, d.Name, len(d.Panels), visibility)
	}
	return nil
}

func (s *Shell) create(ctx context.Context, args []string) error {
	var description string
	if len(args) > 1 {
		description = args[1]
	}

	d := s.dashboards.CreateDashboard(args[0], description)
	if err := s.dashboards.SaveDashboards(ctx); err != nil {
		return err
	}
	s.dashboards.SetCurrentDashboardDirect(d)
	s.printf("Created %s (%s)\n", d.Name, d.ID)
	return nil
}

func (s *Shell) selectDashboard(_ context.Context, args []string) error {
	if !s.dashboards.SetCurrentDashboard(args[0]) {
		return fmt.Errorf("dashboard %s not found", args[0])
	}
	d, _ := s.dashboards.CurrentDashboard()
	s.printf("Selected %s\n", d.Name)
	return nil
}

func (s *Shell) show(_ context.Context, _ []string) error {
	d, ok := s.dashboards.CurrentDashboard()
	if !ok {
		return errNoCurrent
	}

	s.printf("%s (%s)\n", d.Name, d.ID)
	if d.Description != "" {
		s.printf("%s\n", d.Description)
	}
	if d.IsPublic {
		s.printf("Shared: %s\n", s.shareURL(d.ShareToken))
	}
	if len(d.Panels) == 0 {
		s.printf("No panels\n")
		return nil
	}
	for _, p := range d.Panels {
		s.printf("  %-12s %-16s %-28q x=%d y=%d w=%d h=%d\n", p.ID, p.Type, p.Title, p.X, p.Y, p.W, p.H)
	}
	return nil
}

func (s *Shell) rename(_ context.Context, args []string) error {
	d, ok := s.dashboards.CurrentDashboard()
	if !ok {
		return errNoCurrent
	}

	d.Name = args[0]
	if len(args) > 1 {
		d.Description = args[1]
	}
	if !s.dashboards.UpdateDashboard(d) {
		return fmt.Errorf("dashboard %s is not saved in the collection", d.ID)
	}
	s.printf("Renamed to %s\n", d.Name)
	return nil
}

func (s *Shell) deleteDashboard(_ context.Context, args []string) error {
	if !s.dashboards.DeleteDashboard(args[0]) {
		return fmt.Errorf("dashboard %s not found", args[0])
	}
	s.printf("Deleted %s\n", args[0])
	return nil
}

func (s *Shell) addPanel(_ context.Context, args []string) error {
	if _, ok := s.dashboards.CurrentDashboard(); !ok {
		return errNoCurrent
	}

	t := model.PanelType(args[0])
	if !t.Valid() {
		return fmt.Errorf("unknown panel type %q, expected one of: %s", args[0], panelTypeList())
	}

	req := model.AddPanelRequest{Type: t, Title: args[1]}
	if len(args) >= 4 {
		w, h, err := parsePair(args[2], args[3])
		if err != nil {
			return err
		}
		req.W, req.H = w, h
	}

	before, _ := s.dashboards.CurrentDashboard()
	if !s.dashboards.AddPanel(req.Panel(s.dashboards.NextFreeRow())) {
		return fmt.Errorf("could not add panel")
	}
	after, _ := s.dashboards.CurrentDashboard()
	if len(after.Panels) > len(before.Panels) {
		s.printf("Added %s\n", after.Panels[len(after.Panels)-1].ID)
	}
	return nil
}

func (s *Shell) titlePanel(_ context.Context, args []string) error {
	title := strings.Join(args[1:], " ")
	return s.updatePanel(args[0], model.PanelUpdate{Title: &title})
}

func (s *Shell) movePanel(_ context.Context, args []string) error {
	x, y, err := parsePair(args[1], args[2])
	if err != nil {
		return err
	}
	return s.updatePanel(args[0], model.PanelUpdate{X: &x, Y: &y})
}

func (s *Shell) resizePanel(_ context.Context, args []string) error {
	w, h, err := parsePair(args[1], args[2])
	if err != nil {
		return err
	}
	return s.updatePanel(args[0], model.PanelUpdate{W: &w, H: &h})
}

func (s *Shell) configPanel(_ context.Context, args []string) error {
	p, err := s.currentPanel(args[0])
	if err != nil {
		return err
	}

	raw := json.RawMessage(strings.Join(args[1:], " "))
	if !json.Valid(raw) {
		return fmt.Errorf("config is not valid JSON")
	}
	upd, err := s.registry.DecodeChange(p, raw)
	if err != nil {
		return err
	}
	return s.updatePanel(p.ID, upd)
}

func (s *Shell) viewPanel(_ context.Context, args []string) error {
	p, err := s.currentPanel(args[0])
	if err != nil {
		return err
	}

	editing := len(args) > 1 && args[1] == "--edit"
	vm, err := s.registry.Render(p, editing)
	if err != nil {
		return err
	}

	s.printf("%s [%s]\n", vm.Title, vm.Type)
	if vm.InvalidConfig {
		s.printf("(stored config is invalid, showing defaults)\n")
	}
	if vm.HTML != "" {
		s.printf("%s\n", vm.HTML)
	}
	if vm.Src != "" {
		s.printf("src: %s\n", vm.Src)
	}
	if vm.Data != nil {
		data, err := json.MarshalIndent(vm.Data, "", "  ")
		if err != nil {
			return err
		}
		s.printf("%s\n", data)
	}
	for _, f := range vm.Fields {
		s.printf("  %s (%s): %s\n", f.Label, f.Kind, f.Value)
	}
	return nil
}

func (s *Shell) removePanel(_ context.Context, args []string) error {
	if !s.dashboards.RemovePanel(args[0]) {
		return fmt.Errorf("panel %s not found", args[0])
	}
	s.printf("Removed %s\n", args[0])
	return nil
}

func (s *Shell) share(_ context.Context, args []string) error {
	id, err := s.targetID(args)
	if err != nil {
		return err
	}
	token, ok := s.dashboards.ShareDashboard(id)
	if !ok {
		return fmt.Errorf("dashboard %s not found", id)
	}
	s.printf("%s\n", s.shareURL(token))
	return nil
}

func (s *Shell) unshare(_ context.Context, args []string) error {
	id, err := s.targetID(args)
	if err != nil {
		return err
	}
	if !s.dashboards.UnshareDashboard(id) {
		return fmt.Errorf("dashboard %s not found", id)
	}
	s.printf("%s is private\n", id)
	return nil
}

func (s *Shell) theme(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if err := s.sessions.SetTheme(ctx, model.Theme(args[0])); err != nil {
			return err
		}
	}
	s.printf("Theme: %s\n", s.sessions.Theme())
	return nil
}

func (s *Shell) save(ctx context.Context, _ []string) error {
	if err := s.dashboards.SaveDashboards(ctx); err != nil {
		return err
	}
	s.printf("Saved %d dashboards\n", len(s.dashboards.Dashboards()))
	return nil
}

func (s *Shell) load(ctx context.Context, _ []string) error {
	if err := s.dashboards.LoadDashboards(ctx); err != nil {
		return err
	}
	s.printf("Loaded %d dashboards\n", len(s.dashboards.Dashboards()))
	return nil
}

func (s *Shell) printHelp(_ context.Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		s.printf("Syntax: %s\n%s\n", cmd.usage, cmd.help)
		return nil
	}

	s.printf("Available commands:\n")
	for _, name := range commandOrder {
		s.printf("  %-34s %s\n", commands[name].usage, commands[name].help)
	}
	return nil
}

func (s *Shell) updatePanel(panelID string, upd model.PanelUpdate) error {
	if _, ok := s.dashboards.CurrentDashboard(); !ok {
		return errNoCurrent
	}
	if !s.dashboards.UpdatePanel(panelID, upd) {
		return fmt.Errorf("panel %s not found", panelID)
	}
	s.printf("Updated %s\n", panelID)
	return nil
}

func (s *Shell) currentPanel(panelID string) (model.Panel, error) {
	d, ok := s.dashboards.CurrentDashboard()
	if !ok {
		return model.Panel{}, errNoCurrent
	}
	i := d.PanelIndex(panelID)
	if i < 0 {
		return model.Panel{}, fmt.Errorf("panel %s not found", panelID)
	}
	return d.Panels[i], nil
}

// targetID returns the explicit dashboard id or the current dashboard's.
func (s *Shell) targetID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	d, ok := s.dashboards.CurrentDashboard()
	if !ok {
		return "", errNoCurrent
	}
	return d.ID, nil
}

func parsePair(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not a number", a)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not a number", b)
	}
	return x, y, nil
}
