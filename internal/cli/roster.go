package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"paradestate/internal/service/excel"
)

var (
	rosterMembers string
	rosterYear    int
	rosterMonths  []int
	rosterOut     string
)

func init() {
	roster := &cobra.Command{
		Use:   "roster",
		Short: "Roster workbook utilities",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty roster workbook from a member list",
		Long:  "Create a roster workbook with AM/PM/NIGHT sheets and per-month informal sheets. The member list is CSV: platoon,name.",
		Run:   runRosterInit,
	}
	initCmd.Flags().StringVar(&rosterMembers, "members", "", "成员 CSV 文件 (platoon,name)")
	initCmd.Flags().IntVar(&rosterYear, "year", time.Now().Year(), "日表年份")
	initCmd.Flags().IntSliceVar(&rosterMonths, "months", []int{int(time.Now().Month())}, "日表月份 (1-12)")
	initCmd.Flags().StringVarP(&rosterOut, "out", "o", "roster.xlsx", "输出路径")
	_ = initCmd.MarkFlagRequired("members")

	roster.AddCommand(initCmd)
	RootCmd.AddCommand(roster)
}

func runRosterInit(cmd *cobra.Command, args []string) {
	f, err := os.Open(rosterMembers)
	if err != nil {
		exitErr("open members", err)
	}
	defer f.Close()

	members, err := readMembers(f)
	if err != nil {
		exitErr("read members", err)
	}
	months := make([]time.Month, 0, len(rosterMonths))
	for _, m := range rosterMonths {
		if m < 1 || m > 12 {
			exitErr("months", fmt.Errorf("invalid month: %d", m))
		}
		months = append(months, time.Month(m))
	}

	wb, err := excel.NewRosterWorkbook(members, rosterYear, months...)
	if err != nil {
		exitErr("build roster", err)
	}
	defer wb.Close()
	if err := wb.SaveAs(rosterOut); err != nil {
		exitErr("save roster", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已创建名册 %s (%d 人, %d 个月)\n", rosterOut, len(members), len(months))
}

// readMembers 读取 platoon,name 列表；空行与 # 开头的行忽略
func readMembers(r io.Reader) ([]excel.Member, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var out []excel.Member
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want platoon,name", len(out)+1)
		}
		name := strings.TrimSpace(rec[1])
		if name == "" {
			continue
		}
		out = append(out, excel.Member{Platoon: strings.TrimSpace(rec[0]), Name: name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no members")
	}
	return out, nil
}
