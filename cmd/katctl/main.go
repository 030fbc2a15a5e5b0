// katctl 카탈로그 검증과 로컬 분석을 위한 운영 CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/akfldk1028/KAT-sub000/internal/agent"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/core"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
)

var (
	piiPath      string
	threatPath   string
	scamDBPath   string
	snapshotPath string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "katctl",
		Short: "메시징 보안 분석기 운영 도구",
	}
	root.PersistentFlags().StringVar(&piiPath, "pii", "./data/sensitive_patterns.json", "민감정보 카탈로그 경로")
	root.PersistentFlags().StringVar(&threatPath, "threat", "./data/threat_patterns.json", "위협 카탈로그 경로")
	root.PersistentFlags().StringVar(&scamDBPath, "scamdb", "./data/scam_db.json", "신고 DB 경로")
	root.PersistentFlags().StringVar(&snapshotPath, "snapshot", "./data/phishing_snapshot.json", "피싱 스냅샷 경로")

	root.AddCommand(catalogCmd(), analyzeCmd(), snapshotCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "카탈로그 관리",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "카탈로그 로드 및 검증",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := catalog.NewLoader(piiPath, threatPath)
			if err := loader.Load(); err != nil {
				return err
			}
			pii, threat := loader.PII(), loader.Threat()
			fmt.Printf("pii: version=%s entries=%d rules=%d\n",
				pii.Version, len(pii.Entries), len(pii.Rules))
			fmt.Printf("threat: version=%s patterns=%d scenarios=%d\n",
				threat.Version, len(threat.Entries), len(threat.Scenarios))
			return nil
		},
	})
	return cmd
}

func analyzeCmd() *cobra.Command {
	var senderID string
	cmd := &cobra.Command{
		Use:   "analyze [outgoing|incoming] [text]",
		Short: "텍스트 단건 분석",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, text := args[0], args[1]
			manager, err := buildManager()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var result interface{}
			switch direction {
			case "outgoing":
				resp, err := manager.Outgoing.Analyze(ctx, core.AnalyzeOutgoingRequest{Text: text})
				if err != nil {
					return err
				}
				result = resp
			case "incoming":
				resp, err := manager.Incoming.Analyze(ctx, core.AnalyzeIncomingRequest{
					Text:     text,
					SenderID: senderID,
				})
				if err != nil {
					return err
				}
				result = resp
			default:
				return fmt.Errorf("unknown direction %q (want outgoing or incoming)", direction)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&senderID, "sender", "", "발신자 ID (incoming 전용)")
	return cmd
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "피싱 스냅샷 관리",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "스냅샷 상태 출력",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := intel.NewSnapshot(snapshotPath, 24*time.Hour)
			if err != nil {
				return err
			}
			updatedAt, total := snapshot.Info()
			fmt.Printf("updated_at: %s\n", updatedAt.Format(time.RFC3339))
			fmt.Printf("entries: %d\n", total)
			fmt.Printf("age: %s\n", time.Since(updatedAt).Round(time.Minute))
			return nil
		},
	})
	return cmd
}

// buildManager 외부 프로바이더 없이 로컬 소스만으로 매니저를 구성한다
func buildManager() (*agent.Manager, error) {
	loader := catalog.NewLoader(piiPath, threatPath)
	if err := loader.Load(); err != nil {
		return nil, err
	}
	threatCat := loader.Threat()
	extractor := extract.New(threatCat.WhitelistDomains, threatCat.ShortURLDomains)

	localDB, err := intel.NewLocalReportDB(scamDBPath)
	if err != nil {
		return nil, err
	}
	snapshot, err := intel.NewSnapshot(snapshotPath, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	aggregator := intel.NewAggregator(intel.AggregatorOptions{
		LocalDB:  localDB,
		Snapshot: snapshot,
	})

	analyzerCfg, _, _, _ := config.LoadAnalyzerConfig()
	analyzerCfg.EnableLLM = false

	return agent.NewManager(agent.Dependencies{
		Loader:    loader,
		Extractor: extractor,
		Intel:     aggregator,
		Trust:     conversation.NewAnalyzer(conversation.NewMemoryStore(0)),
		Config:    *analyzerCfg,
	}), nil
}
