package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"winnow/service"
)

type Client struct {
	addr    string
	url     string
	timeout time.Duration
}

func NewClient(addr string) (*Client, error) {
	c := &Client{
		addr:    addr,
		url:     fmt.Sprintf("http://%s", addr),
		timeout: time.Second * 30,
	}

	if !c.IsWinnowServer() {
		return nil, fmt.Errorf("%s is not a winnow server", c.addr)
	}
	return c, nil
}

func (c *Client) Call(cmdType service.CmdType, args string) (string, error) {
	var method, path, word string
	switch cmdType {
	case service.Scan:
		method, path, word = http.MethodPost, "/scan", "search"
	case service.Narrow:
		method, path, word = http.MethodPost, "/narrow", "narrow"
	case service.Matches:
		method, path, word = http.MethodGet, "/matches", "matches"
	case service.Regions:
		method, path, word = http.MethodGet, "/regions", "regions"
	case service.Filter:
		method, path, word = http.MethodPost, "/filter", "filter"
	case service.FilterNot:
		method, path, word = http.MethodPost, "/filter", "filter!"
	case service.Reset:
		method, path, word = http.MethodPost, "/reset", "reset"
	case service.Dump:
		method, path, word = http.MethodGet, "/dump", "dump"
	case service.Set:
		method, path, word = http.MethodPost, "/set", "set"
	case service.Ping:
		fallthrough
	default:
		method, path, word = http.MethodGet, "/winnow", ""
	}

	expr := word
	if args != "" {
		expr = strings.TrimSpace(word + " " + args)
	}

	resp, err := c.do(&doRequest{
		method: method,
		path:   path,
		expr:   expr,
	})
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("%s", resp.Msg)
	}

	if resp.Data == nil {
		return "", nil
	}
	respStr, ok := resp.Data.(string)
	if !ok {
		return "", fmt.Errorf("unexpected response type %T", resp.Data)
	}

	return respStr, nil
}

func (c *Client) IsWinnowServer() bool {
	if c.addr == "" {
		return false
	}

	resp, err := c.do(&doRequest{
		method: http.MethodGet,
		path:   "/winnow",
	})
	if err != nil {
		fmt.Println("client recv err: ", err)
		return false
	}

	return resp.Status == http.StatusOK
}

type doRequest struct {
	method string
	path   string
	header http.Header
	expr   string
}

func (c *Client) jsonHeader() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return header
}

func (c *Client) do(req *doRequest) (resp *response, err error) {
	url := c.url + req.path

	exr := newExpression(req.expr, os.Getpid())
	bs, err := json.Marshal(exr)
	if err != nil {
		return
	}

	bodyReader := bytes.NewReader(bs)
	r, err := http.NewRequest(req.method, url, bodyReader)
	if err != nil {
		return
	}

	if req.header == nil {
		r.Header = c.jsonHeader()
	} else {
		r.Header = req.header
	}

	http.DefaultClient.Timeout = c.timeout
	res, err := http.DefaultClient.Do(r)
	if err != nil {
		return
	}
	defer res.Body.Close()

	bs, err = io.ReadAll(res.Body)
	if err != nil {
		return
	}

	err = json.Unmarshal(bs, &resp)
	return
}
