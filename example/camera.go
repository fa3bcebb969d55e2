package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mr-onion-2/neolink"
	"github.com/mr-onion-2/neolink/bc"
)

var (
	addr     = flag.String("addr", "192.168.1.10:9000", "camera address")
	username = flag.String("username", "admin", "camera username")
	password = flag.String("password", "", "camera password")
)

// hashPassword derives the uppercase truncated md5 the cameras expect.
func hashPassword(nonce, password string) string {
	sum := md5.Sum([]byte(password + nonce))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:31]
}

func loginRequest(userName, passWord string) *bc.Bc {
	return &bc.Bc{
		Meta: bc.Meta{
			MsgID:     bc.MsgIDLogin,
			Class:     bc.ClassModernZero,
			EncOffset: 0x1000000,
			Encrypted: true,
		},
		Body: &bc.ModernMsg{
			XML: &bc.BcXml{
				LoginUser: &bc.LoginUser{
					Version:  "1.1",
					UserName: userName,
					Password: passWord,
					UserVer:  1,
				},
				LoginNet: &bc.LoginNet{Version: "1.1", Type: "LAN", UDPPort: 0},
			},
		},
	}
}

func main() {
	flag.Parse()

	tcpAddr, err := net.ResolveTCPAddr("tcp", *addr)
	if err != nil {
		slog.Error("bad camera address", "addr", *addr, "error", err)
		return
	}

	rawConn, err := net.DialTCP("tcp", nil, tcpAddr)
	if err != nil {
		slog.Error("failed to dial camera", "addr", *addr, "error", err)
		return
	}

	session := bc.NewBcContext()

	var conn *neolink.Conn
	conn, err = neolink.NewConn(rawConn,
		neolink.SessionOption(session),
		neolink.OnMessageOption(func(msg *bc.Bc) error {
			switch body := msg.Body.(type) {
			case *bc.ModernMsg:
				// A login reply carrying a nonce means the camera wants
				// hashed credentials in a second login round.
				if body.XML != nil && body.XML.Encryption != nil {
					nonce := body.XML.Encryption.Nonce
					slog.Info("received login challenge", "nonce", nonce)
					return conn.Write(loginRequest(
						hashPassword(nonce, *username),
						hashPassword(nonce, *password),
					))
				}
				if body.XML != nil && body.XML.DeviceInfo != nil {
					res := body.XML.DeviceInfo.Resolution
					slog.Info("logged in", "resolution", res.Name,
						"width", res.Width, "height", res.Height)
				}
				if body.Payload != nil && body.Payload.Kind == bc.PayloadBinary {
					session.SetBinaryMode(msg.Meta.MsgID)
					slog.Debug("video data", "msg_id", msg.Meta.MsgID,
						"bytes", len(body.Payload.Binary))
				}
			case bc.LoginMsg:
				slog.Info("legacy login echo", "username", body.Username)
			case bc.UnknownMsg:
				slog.Debug("unhandled legacy message", "msg_id", msg.Meta.MsgID)
			}
			return nil
		}),
		neolink.OnErrorOption(func(err error) neolink.ErrorAction {
			slog.Error("connection error", "error", err)
			return neolink.Disconnect
		}),
	)
	if err != nil {
		slog.Error("failed to create connection", "error", err)
		return
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	// First login round: plaintext names, camera answers with a nonce.
	if err := conn.Write(loginRequest(*username, *password)); err != nil {
		slog.Error("failed to send login", "error", err)
		return
	}

	slog.Info("connected", "addr", *addr)
	if err := conn.Run(ctx); err != nil {
		slog.Error("connection closed", "error", err)
	}
}
