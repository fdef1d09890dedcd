// Package ctl implements the exceptionctl admin commands on top of app.Service.
package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/app"
	"github.com/shrimpsizemoose/undantag/internal/models"
	"github.com/shrimpsizemoose/undantag/internal/paging"
	"github.com/shrimpsizemoose/undantag/internal/store"
)

const usage = `Usage: exceptionctl [-config config.toml] <command> [args]

Commands:
  list [-page N] [-size N] [-sort col:dir] [search]   List exception definitions
  show <id>                                           Show one exception with aggregates
  assignees <id> [-page N] [-size N]                  List assignees of an exception
  history <id> <emp>                                  Assignment rows of one employee
  assign <id> <emp>... [-by actor]                    Assign employees
  revoke <id> <emp>... [-by actor] [-reason text]     Revoke employees
  token issue <admin>                                 Issue an admin API token
  token list <admin>                                  List tokens of an admin
  token revoke <token>                                Revoke an admin API token
  help                                                Show this message

Examples:
  exceptionctl assign 42 E001 E002 -by alice
  exceptionctl revoke 42 E001 -reason "policy change"
  exceptionctl list -sort assignees_active:desc usb`

var ErrUsage = errors.New("invalid usage")

// Tokens is the part of app.TokenManager the token commands need.
type Tokens interface {
	IssueAdminToken(ctx context.Context, admin string) (*models.TokenInfo, error)
	ListAdminTokens(ctx context.Context, admin string) ([]models.TokenInfo, error)
	RevokeAdminToken(ctx context.Context, token string) error
	Close() error
}

// TokenOpener connects to the token storage on first use, so commands that
// do not touch tokens work without Redis.
type TokenOpener func() (Tokens, error)

type CLI struct {
	service    *app.Service
	openTokens TokenOpener
	out        io.Writer
}

type commandHandler func(ctx context.Context, args []string) error

func New(service *app.Service, openTokens TokenOpener, out io.Writer) *CLI {
	return &CLI{
		service:    service,
		openTokens: openTokens,
		out:        out,
	}
}

func (c *CLI) route(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"list":      c.handleList,
		"show":      c.handleShow,
		"assignees": c.handleAssignees,
		"history":   c.handleHistory,
		"assign":    c.handleAssign,
		"revoke":    c.handleRevoke,
		"token":     c.handleToken,
		"help":      c.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.handleHelp(ctx, nil)
		return ErrUsage
	}

	handler, ok := c.route(args[0])
	if !ok {
		c.handleHelp(ctx, nil)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	logger.Debug.Printf("Running command %s %v", args[0], args[1:])
	return handler(ctx, args[1:])
}

func (c *CLI) handleHelp(_ context.Context, _ []string) error {
	fmt.Fprintln(c.out, usage)
	return nil
}

func (c *CLI) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseInterleaved lets flags appear before, between or after positional
// arguments, which the flag package alone does not allow.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid exception id %q", ErrUsage, raw)
	}
	return id, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (c *CLI) handleList(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	page := fs.String("page", "1", "1-based page")
	size := fs.String("size", "", "page size")
	sort := fs.String("sort", "", "sort as column:asc|desc")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}

	result, err := c.service.ListExceptions(
		ctx,
		models.ExceptionFilter{Search: strings.Join(positional, " ")},
		store.ParseSort(*sort),
		paging.Normalize(*page, *size, c.service.Config.ExceptionLimits()),
	)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *CLI) handleShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <id>", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	exc, err := c.service.GetException(ctx, id)
	if err != nil {
		return err
	}
	if exc == nil {
		return fmt.Errorf("%w: %d", app.ErrExceptionNotFound, id)
	}
	return c.print(exc)
}

func (c *CLI) handleAssignees(ctx context.Context, args []string) error {
	fs := newFlagSet("assignees")
	page := fs.String("page", "1", "1-based page")
	size := fs.String("size", "", "page size")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: assignees <id>", ErrUsage)
	}
	id, err := parseID(positional[0])
	if err != nil {
		return err
	}

	result, err := c.service.ListAssignees(ctx, id, paging.Normalize(*page, *size, c.service.Config.AssigneeLimits()))
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *CLI) handleHistory(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: history <id> <emp>", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	rows, err := c.service.ListAssignments(ctx, id, args[1])
	if err != nil {
		return err
	}
	return c.print(rows)
}

func (c *CLI) handleAssign(ctx context.Context, args []string) error {
	fs := newFlagSet("assign")
	by := fs.String("by", "", "actor recorded as assigned_by")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return fmt.Errorf("%w: assign <id> <emp>...", ErrUsage)
	}
	id, err := parseID(positional[0])
	if err != nil {
		return err
	}

	req := models.AssignRequest{EmpCodes: positional[1:], AssignedBy: optional(*by)}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrUsage, models.ValidationMessage(err))
	}

	result, err := c.service.AssignEmployees(ctx, id, req, "")
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *CLI) handleRevoke(ctx context.Context, args []string) error {
	fs := newFlagSet("revoke")
	by := fs.String("by", "", "actor recorded as revoked_by")
	reason := fs.String("reason", "", "revoke reason")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return fmt.Errorf("%w: revoke <id> <emp>...", ErrUsage)
	}
	id, err := parseID(positional[0])
	if err != nil {
		return err
	}

	req := models.RevokeRequest{EmpCodes: positional[1:], RevokedBy: optional(*by), Reason: optional(*reason)}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrUsage, models.ValidationMessage(err))
	}

	result, err := c.service.RevokeEmployees(ctx, id, req, "")
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *CLI) handleToken(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: token issue|list <admin> or token revoke <token>", ErrUsage)
	}
	if c.openTokens == nil {
		return fmt.Errorf("token commands need [auth] redis_url in config")
	}

	tokens, err := c.openTokens()
	if err != nil {
		return err
	}
	defer tokens.Close()

	switch args[0] {
	case "issue":
		info, err := tokens.IssueAdminToken(ctx, args[1])
		if err != nil {
			return err
		}
		logger.Info.Printf("Issued admin token for %s", info.Admin)
		return c.print(info)
	case "list":
		infos, err := tokens.ListAdminTokens(ctx, args[1])
		if err != nil {
			return err
		}
		return c.print(infos)
	case "revoke":
		if err := tokens.RevokeAdminToken(ctx, args[1]); err != nil {
			return err
		}
		logger.Info.Printf("Revoked admin token %s...", truncate(args[1], 16))
		return c.print(map[string]interface{}{"revoked": true})
	default:
		return fmt.Errorf("%w: unknown token subcommand %q", ErrUsage, args[0])
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
