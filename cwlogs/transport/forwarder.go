// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
)

type Protocol string

const (
	ProtocolTCP  Protocol = "TCP"
	ProtocolHTTP Protocol = "HTTP"
)

// Destination describes a local relay. Port is used for TCP, URI for HTTP.
type Destination struct {
	Protocol Protocol
	URI      string
	Port     uint16
}

// Forwarder sends batches to a relay and must be closed when no longer used.
type Forwarder interface {
	Send(ctx context.Context, dst model.Destination, batch []model.Record) error
	io.Closer
}

func NewForwarder(dst Destination) (Forwarder, error) {
	switch dst.Protocol {
	case ProtocolTCP:
		return newTCPForwarder(dst.Port)
	case ProtocolHTTP:
		return newHTTPForwarder(dst.URI)
	default:
		return nil, fmt.Errorf("unknown protocol: %s. Only TCP and HTTP are supported", dst.Protocol)
	}
}

type tcpForwarder struct {
	conn   net.Conn
	writer *bufio.Writer
}

func newTCPForwarder(port uint16) (*tcpForwarder, error) {
	address := fmt.Sprintf("127.0.0.1:%d", port)
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not TCP dial provided address %s: %w", address, err)
	}
	return &tcpForwarder{conn: conn, writer: bufio.NewWriter(conn)}, nil
}

func (c *tcpForwarder) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("could not set write deadline: %w", err)
		}
	}

	for _, ev := range toEvents(dst, batch) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("sending event to TCP relay was interrupted: %w", ctx.Err())
		default:
		}
		line, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("could not encode event: %w", err)
		}
		if _, err := c.writer.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("could not write event: %w", err)
		}
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("could not write events: %w", err)
	}
	return nil
}

func (c *tcpForwarder) Close() error {
	return c.conn.Close()
}

type httpForwarder struct {
	addr   string
	client *http.Client
}

func newHTTPForwarder(uri string) (*httpForwarder, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("could not parse destination.URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("destination.URI scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("destination.URI must include a host")
	}
	return &httpForwarder{addr: u.String(), client: &http.Client{}}, nil
}

func (c *httpForwarder) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	b, err := json.Marshal(toEvents(dst, batch))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("could not create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sequence-Id", sequenceID(b))
	req.Header.Set("Batch-Id", uuid.New().String())

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Error("could not close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http request failed with status %s: %s", resp.Status, string(body))
	}

	log.WithField("relay_response", string(body)).Debug("relay HTTP request completed")
	return nil
}

func (c *httpForwarder) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func sequenceID(data []byte) string {
	hash := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(hash[:])
}
