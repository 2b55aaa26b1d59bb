package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/service"
)

const tokenEnv = "TEAMTASK_TOKEN"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "client",
		Short:        "Talk to a teamtask server",
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	root.SetOut(out)

	var (
		httpAddr     string
		companyEmail string
	)
	login := &cobra.Command{
		Use:   "login EMAIL PASSWORD",
		Short: "Log in over HTTP and print the bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := loginHTTP(ctx, httpAddr, service.LoginRequest{
				Email:        args[0],
				Password:     args[1],
				CompanyEmail: companyEmail,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Logged in as %s (%s) at %s\n", resp.User.Name, resp.User.Role, resp.User.CompanyName)
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}
	login.Flags().StringVar(&httpAddr, "addr", "http://localhost:5000", "HTTP API base URL")
	login.Flags().StringVar(&companyEmail, "company", "", "company email, when the account exists in several companies")

	var (
		grpcAddr string
		token    string
	)
	chat := &cobra.Command{
		Use:   "chat [MESSAGE...]",
		Short: "Send a message to the assistant over gRPC",
		Long: `Sends MESSAGE to the assistant and prints its reply. Without MESSAGE,
reads one message per line from standard input until EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv(tokenEnv)
			}
			if token == "" {
				return fmt.Errorf("a token is required: pass --token or set %s", tokenEnv)
			}

			conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer conn.Close()

			client := service.NewAssistantClient(conn)
			send := func(message string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

				reply, err := client.Chat(ctx, message)
				if err != nil {
					return errors.New(status.Convert(err).Message())
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply)
				return nil
			}

			if len(args) > 0 {
				return send(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := send(line); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				}
			}
			return scanner.Err()
		},
	}
	chat.Flags().StringVar(&grpcAddr, "addr", "localhost:50051", "gRPC server address")
	chat.Flags().StringVar(&token, "token", "", "bearer token (defaults to $"+tokenEnv+")")

	root.AddCommand(login, chat)
	return root
}

func loginHTTP(ctx context.Context, baseURL string, req service.LoginRequest) (*service.LoginResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return nil, fmt.Errorf("login failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("login failed: %s", apiErr.Error)
	}

	var out service.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &out, nil
}
