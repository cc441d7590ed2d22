package basket

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
)

type BasketTestSuite struct {
	suite.Suite
	tempDir string
}

func TestBasketSuite(t *testing.T) {
	suite.Run(t, new(BasketTestSuite))
}

func (suite *BasketTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "basket-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *BasketTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *BasketTestSuite) TestPredefinedValidate() {
	for name, def := range Predefined() {
		suite.NoError(def.Validate(), "basket %s", name)
	}
}

func (suite *BasketTestSuite) TestLookup() {
	def, err := Lookup("index")
	suite.Require().NoError(err)
	suite.Equal("CME", def.Exchange)
	suite.Equal(DayRuleThirdFriday, def.DayRule)
	suite.False(def.InclusiveCutoff)

	def, err = Lookup("metals")
	suite.Require().NoError(err)
	suite.Equal("COMEX", def.Exchange)
	suite.Equal(DayRuleThirdLastBusinessDay, def.DayRule)
	suite.True(def.InclusiveCutoff)
}

func (suite *BasketTestSuite) TestLookupUnknown() {
	_, err := Lookup("grains")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownBasket))
}

func (suite *BasketTestSuite) TestSingle() {
	def := Single("ES", "CME")
	suite.Equal([]string{"ES"}, def.Symbols)
	suite.Equal("CME", def.Exchange)
	suite.NoError(def.Validate())
}

func (suite *BasketTestSuite) TestValidateRejectsBadDayRule() {
	def := Predefined()["index"]
	def.DayRule = "lunar"

	err := def.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBasketConfigInvalid))
}

func (suite *BasketTestSuite) TestValidateRejectsEmptySchedule() {
	def := Predefined()["index"]
	def.ExpirationMonths = nil

	err := def.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBasketConfigInvalid))
}

func (suite *BasketTestSuite) TestLoadDefinitions() {
	path := filepath.Join(suite.tempDir, "baskets.yaml")
	content := `
- name: energy
  exchange: NYMEX
  currency: USD
  symbols: [CL]
  expiration_months: [1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12]
  roll_offset_days: 3
  day_rule: third-last-business-day
  inclusive_cutoff: false
  discipline: fifo
  duration: 1 D
  bar_size: 1 min
  use_rth: false
`
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	defs, err := LoadDefinitions(path)
	suite.Require().NoError(err)
	suite.Require().Contains(defs, "energy")

	def := defs["energy"]
	suite.Equal("NYMEX", def.Exchange)
	suite.Equal(12, len(def.ExpirationMonths))
	suite.Equal(time.January, def.ExpirationMonths[0])
}

func (suite *BasketTestSuite) TestLoadDefinitionsInvalid() {
	path := filepath.Join(suite.tempDir, "bad.yaml")
	content := `
- name: broken
  exchange: NYMEX
  currency: USD
  symbols: [CL]
  expiration_months: []
  day_rule: third-friday
  discipline: fifo
  duration: 1 D
  bar_size: 1 min
`
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	_, err := LoadDefinitions(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBasketConfigInvalid))
}

func (suite *BasketTestSuite) TestLoadDefinitionsMissingFile() {
	_, err := LoadDefinitions(filepath.Join(suite.tempDir, "nope.yaml"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
