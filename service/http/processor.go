package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/derekparker/trie"
	"winnow/pkg/config"
	"winnow/pkg/match"
	"winnow/pkg/proc"
	"winnow/pkg/scan"
	"winnow/utils"
)

type Router struct {
	method string
	path   string
	fn     func(ctx *Context)
}

type processor struct {
	session *scan.Session
	cfg     *config.Config
	router  []*Router
	trie    *trie.Trie
}

func (p *processor) route(method, path string) func(ctx *Context) {
	node, found := p.trie.Find(utils.MD5(methodPath(method, path)))
	if found {
		fn := node.Meta().(func(ctx *Context))
		return fn
	}

	return nil
}

func (p *processor) worker(ctx *Context) {
	req := ctx.request
	fn := p.route(req.method, req.path)
	if fn == nil {
		ctx.respFailed(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	fn(ctx)
}

func newProcessor(session *scan.Session, cfg *config.Config) (*processor, error) {
	proc := &processor{
		session: session,
		cfg:     cfg,
	}

	register(proc)
	return proc, nil
}

// predicate is one parsed scan or narrow request.
type predicate struct {
	op        string
	v1, v2    string
	rangeFlag string
	unaligned bool
}

// parsePredicate consumes `<op> [value [value]]` and then any of
// `aligned`, `unaligned`/`u`, or a range-flag word, in any order.
func parsePredicate(args []string, defaultUnaligned bool) (predicate, error) {
	pred := predicate{unaligned: defaultUnaligned}
	if len(args) == 0 {
		return pred, fmt.Errorf("missing operator")
	}

	pred.op = args[0]
	op, err := match.ParseOp(pred.op)
	if err != nil {
		return pred, err
	}

	vals := args[1:]
	need := op.NeedleCount()
	if len(vals) < need {
		return pred, fmt.Errorf("%s needs %d value(s), got %d", op, need, len(vals))
	}
	if need >= 1 {
		pred.v1 = vals[0]
	}
	if need == 2 {
		pred.v2 = vals[1]
	}

	for _, tok := range vals[need:] {
		switch tok {
		case "aligned":
			pred.unaligned = false
		case "unaligned", "u":
			pred.unaligned = true
		default:
			if pred.rangeFlag != "" {
				return pred, fmt.Errorf("unexpected argument %q", tok)
			}
			pred.rangeFlag = tok
		}
	}

	return pred, nil
}

// parseAddr accepts a hex or decimal address, or #id naming a current
// match.
func parseAddr(session *scan.Session, s string) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("match id %q: %v", s, err)
		}
		return session.MatchAddr(id)
	}
	return strconv.ParseUint(s, 0, 64)
}

func (p *processor) expectCmd(ctx *Context, want string) []string {
	if ctx.expr == nil {
		ctx.respFailed(http.StatusBadRequest, "missing expression")
		return nil
	}

	cmd, args, err := ctx.expr.resolve()
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return nil
	}
	if strings.ToLower(cmd) != want {
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid command: %s", cmd))
		return nil
	}

	return args
}

func register(p *processor) {
	r := []*Router{
		{
			method: http.MethodGet,
			path:   "/winnow",
			fn: func(ctx *Context) {
				ctx.respSuccess(nil)
			},
		},
		{
			method: http.MethodPost,
			path:   "/scan",
			fn:     p.scanHandler,
		},
		{
			method: http.MethodPost,
			path:   "/narrow",
			fn:     p.narrowHandler,
		},
		{
			method: http.MethodGet,
			path:   "/matches",
			fn:     p.matchesHandler,
		},
		{
			method: http.MethodGet,
			path:   "/regions",
			fn:     p.regionsHandler,
		},
		{
			method: http.MethodPost,
			path:   "/filter",
			fn:     p.filterHandler,
		},
		{
			method: http.MethodPost,
			path:   "/reset",
			fn:     p.resetHandler,
		},
		{
			method: http.MethodGet,
			path:   "/dump",
			fn:     p.dumpHandler,
		},
		{
			method: http.MethodPost,
			path:   "/set",
			fn:     p.setHandler,
		},
	}

	p.router = r

	t := trie.New()
	for _, router := range p.router {
		md5 := utils.MD5(methodPath(router.method, router.path))
		t.Add(md5, router.fn)
	}

	p.trie = t
}

func (p *processor) scanHandler(ctx *Context) {
	args := p.expectCmd(ctx, "search")
	if args == nil {
		return
	}

	pred, err := parsePredicate(args, p.cfg.Unaligned)
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}

	n, err := p.session.Scan(ctx.read.Context(), pred.op, pred.v1, pred.v2, pred.rangeFlag, pred.unaligned)
	if err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	ctx.respSuccess(fmt.Sprintf("%d matches", n))
}

func (p *processor) narrowHandler(ctx *Context) {
	args := p.expectCmd(ctx, "narrow")
	if args == nil {
		return
	}

	pred, err := parsePredicate(args, p.cfg.Unaligned)
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}

	n, err := p.session.Narrow(ctx.read.Context(), pred.op, pred.v1, pred.v2, pred.rangeFlag)
	if err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	ctx.respSuccess(fmt.Sprintf("%d matches", n))
}

func (p *processor) matchesHandler(ctx *Context) {
	args := p.expectCmd(ctx, "matches")
	if args == nil {
		return
	}

	limit := p.cfg.MaxMatches
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("limit %q: %v", args[0], err))
			return
		}
		limit = n
	}

	total := p.session.MatchCount()
	infos := p.session.Matches(limit)

	var buf strings.Builder
	for _, m := range infos {
		fmt.Fprintf(&buf, "[%3d] %#012x %s (region %d)\n", m.ID, m.Addr, m.Value, m.RegionID)
	}
	if len(infos) < total {
		fmt.Fprintf(&buf, "... %d of %d shown\n", len(infos), total)
	}

	ctx.respSuccess(buf.String())
}

func (p *processor) regionsHandler(ctx *Context) {
	if args := p.expectCmd(ctx, "regions"); args == nil {
		return
	}

	var buf strings.Builder
	for _, r := range p.session.Regions() {
		buf.WriteString(r.String())
		buf.WriteString("\n")
	}

	ctx.respSuccess(buf.String())
}

func (p *processor) filterHandler(ctx *Context) {
	if ctx.expr == nil {
		ctx.respFailed(http.StatusBadRequest, "missing expression")
		return
	}

	cmd, args, err := ctx.expr.resolve()
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}

	var invert bool
	switch strings.ToLower(cmd) {
	case "filter":
	case "filter!":
		invert = true
	default:
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid command: %s", cmd))
		return
	}

	if len(args) != 2 {
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("filter wants <kind> <pattern>, got %d argument(s)", len(args)))
		return
	}

	kind, err := proc.ParseFilterKind(args[0])
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}

	n, err := p.session.Filter(kind, args[1], invert)
	if err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	ctx.respSuccess(fmt.Sprintf("%d regions selected", n))
}

func (p *processor) resetHandler(ctx *Context) {
	if args := p.expectCmd(ctx, "reset"); args == nil {
		return
	}

	if err := p.session.Reset(); err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	ctx.respSuccess(fmt.Sprintf("%d regions", len(p.session.Regions())))
}

func (p *processor) dumpHandler(ctx *Context) {
	args := p.expectCmd(ctx, "dump")
	if args == nil {
		return
	}
	if len(args) != 2 {
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("dump wants <addr> <len>, got %d argument(s)", len(args)))
		return
	}

	addr, err := parseAddr(p.session, args[0])
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}
	length, err := strconv.Atoi(args[1])
	if err != nil || length <= 0 {
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("length %q", args[1]))
		return
	}

	data, err := p.session.Peek(addr, length)
	if err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	var buf strings.Builder
	utils.Hexdump(&buf, addr, data)
	ctx.respSuccess(buf.String())
}

func (p *processor) setHandler(ctx *Context) {
	args := p.expectCmd(ctx, "set")
	if args == nil {
		return
	}
	if len(args) != 2 {
		ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("set wants <addr> <value>, got %d argument(s)", len(args)))
		return
	}

	addr, err := parseAddr(p.session, args[0])
	if err != nil {
		ctx.respFailed(http.StatusBadRequest, err.Error())
		return
	}

	if err := p.session.Poke(addr, args[1]); err != nil {
		ctx.respFailed(http.StatusInternalServerError, err.Error())
		return
	}

	ctx.respSuccess("ok")
}

func methodPath(method, path string) string {
	return fmt.Sprintf("%s:%s", method, path)
}
