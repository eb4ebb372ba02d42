package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/plugin/storage/s3"
	"github.com/rabithua/chatmemo/store"
	"github.com/rabithua/chatmemo/store/db"
)

var (
	exportUsername string
	exportOutput   string
	exportS3Config s3.Config

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export all memos of a user as JSON, to a file or an S3 bucket",
		RunE: func(cmd *cobra.Command, _args []string) error {
			ctx := cmd.Context()
			if exportUsername == "" {
				return fmt.Errorf("--username is required")
			}

			db := db.NewDB(profile)
			if err := db.Open(ctx); err != nil {
				return errors.Wrap(err, "failed to open db")
			}
			defer db.Close()
			s := store.New(db.DBInstance, profile)

			buf := &bytes.Buffer{}
			if err := exportMemos(ctx, s, exportUsername, buf); err != nil {
				return err
			}

			if exportS3Config.Bucket != "" {
				client, err := s3.NewClient(ctx, &exportS3Config)
				if err != nil {
					return errors.Wrap(err, "failed to create s3 client")
				}
				filename := fmt.Sprintf("%s-%d.json", exportUsername, time.Now().Unix())
				location, err := client.UploadFile(ctx, filename, "application/json", buf)
				if err != nil {
					return errors.Wrap(err, "failed to upload export")
				}
				log.Info("memos exported", zap.String("username", exportUsername), zap.String("location", location))
				return nil
			}

			if exportOutput == "" || exportOutput == "-" {
				_, err := io.Copy(os.Stdout, buf)
				return err
			}
			if err := os.WriteFile(exportOutput, buf.Bytes(), 0o600); err != nil {
				return errors.Wrapf(err, "failed to write %s", exportOutput)
			}
			log.Info("memos exported", zap.String("username", exportUsername), zap.String("output", exportOutput))
			return nil
		},
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportUsername, "username", "", "user whose memos are exported")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file, stdout when empty")
	exportCmd.Flags().StringVar(&exportS3Config.Bucket, "s3-bucket", "", "upload the export to this bucket instead of writing a file")
	exportCmd.Flags().StringVar(&exportS3Config.Region, "s3-region", "", "region of the bucket")
	exportCmd.Flags().StringVar(&exportS3Config.EndPoint, "s3-endpoint", "", "endpoint of an S3 compatible service")
	exportCmd.Flags().StringVar(&exportS3Config.Path, "s3-path", "", "key prefix of the uploaded export")
	exportCmd.Flags().StringVar(&exportS3Config.AccessKey, "s3-access-key", "", "access key, the default AWS credential chain is used when empty")
	exportCmd.Flags().StringVar(&exportS3Config.SecretKey, "s3-secret-key", "", "secret key")
}

type memoExport struct {
	Username   string              `json:"username"`
	ExportedTs int64               `json:"exportedTs"`
	Memos      []*memoExportRecord `json:"memos"`
}

type memoExportRecord struct {
	ConversationID    int    `json:"conversationId"`
	ConversationTitle string `json:"conversationTitle"`
	Content           string `json:"content"`
	CreatedTs         int64  `json:"createdTs"`
	UpdatedTs         int64  `json:"updatedTs"`
}

// exportMemos writes every memo of the user, with the title of its conversation, as indented JSON.
func exportMemos(ctx context.Context, s *store.Store, username string, w io.Writer) error {
	user, err := s.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}
	if user == nil {
		return fmt.Errorf("user %q not found", username)
	}

	memoList, err := s.ListMemos(ctx, &store.FindMemo{
		RequesterID: user.ID,
		UserID:      &user.ID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to list memos")
	}

	export := &memoExport{
		Username:   user.Username,
		ExportedTs: time.Now().Unix(),
		Memos:      []*memoExportRecord{},
	}
	for _, memo := range memoList {
		record := &memoExportRecord{
			ConversationID: memo.ConversationID,
			Content:        memo.Content,
			CreatedTs:      memo.CreatedTs,
			UpdatedTs:      memo.UpdatedTs,
		}
		conversation, err := s.GetConversation(ctx, &store.FindConversation{ID: &memo.ConversationID})
		if err != nil {
			return errors.Wrapf(err, "failed to find conversation %d", memo.ConversationID)
		}
		if conversation != nil {
			record.ConversationTitle = conversation.Title
		}
		export.Memos = append(export.Memos, record)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
