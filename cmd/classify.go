package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// recordFlags build a single record from the command line.
type recordFlags struct {
	json        string
	name        string
	description string
	categories  string
	industry    string
	website     string
	phone       string
	email       string
	address     string
	serviceType string
	isp         bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.json, "record", "", "record as a JSON object (\"-\" reads stdin); other flags override its fields")
	cmd.Flags().StringVar(&f.name, "name", "", "business name")
	cmd.Flags().StringVar(&f.description, "description", "", "business description")
	cmd.Flags().StringVar(&f.categories, "categories", "", "directory categories")
	cmd.Flags().StringVar(&f.industry, "industry", "", "industry text")
	cmd.Flags().StringVar(&f.website, "website", "", "website URL")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "general email")
	cmd.Flags().StringVar(&f.address, "address", "", "one-line address")
	cmd.Flags().StringVar(&f.serviceType, "service-type", "", "ISP service type")
	cmd.Flags().BoolVar(&f.isp, "isp", false, "use the ISP rules")
}

func (f *recordFlags) record(stdin io.Reader) (model.Record, error) {
	rec := model.Record{}
	if f.json != "" {
		var data []byte
		if f.json == "-" {
			b, err := io.ReadAll(stdin)
			if err != nil {
				return nil, eris.Wrap(err, "read record from stdin")
			}
			data = b
		} else {
			data = []byte(f.json)
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrap(err, "parse record")
		}
	}
	for field, v := range map[string]string{
		model.FieldBusinessName:        f.name,
		model.FieldBusinessDescription: f.description,
		model.FieldCategories:          f.categories,
		model.FieldIndustry:            f.industry,
		model.FieldWebsite:             f.website,
		model.FieldPhone:               f.phone,
		model.FieldGeneralEmail:        f.email,
		model.FieldAddress:             f.address,
		model.FieldServiceType:         f.serviceType,
	} {
		if v != "" {
			rec.Set(field, v)
		}
	}
	if len(rec) == 0 {
		return nil, eris.New("no record given: use --record or field flags such as --name")
	}
	return rec, nil
}

// classifyOutput is printed by the classify command.
type classifyOutput struct {
	model.Classification
	Fallback string `json:"fallback,omitempty"`
}

var classifyFlags recordFlags

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Assign a NAICS code to one business",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := classifyFlags.record(cmd.InOrStdin())
		if err != nil {
			return err
		}

		var res classify.Result
		if classifyFlags.isp {
			res = classify.NewISPClassifier().Classify(rec)
		} else {
			if err := cfg.Validate(config.ModeClassify); err != nil {
				return err
			}
			chain, _, err := initAI(cmd.Context())
			if err != nil {
				return err
			}
			env := &leadEnv{AI: chain}
			res = newClassifier(env).Classify(cmd.Context(), rec)
			logAIUsage(env)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(classifyOutput{Classification: res.Classification, Fallback: res.Fallback})
	},
}

func init() {
	classifyFlags.register(classifyCmd)
	rootCmd.AddCommand(classifyCmd)
}
