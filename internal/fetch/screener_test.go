package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
)

const screenerCompanyPage = `<!DOCTYPE html>
<html><body>
<h1 class="h2">Tata Consultancy Services Ltd</h1>
<ul id="top-ratios">
  <li><span class="name">Market Cap</span><span class="number">12,50,000</span></li>
  <li><span class="name">Stock P/E</span><span class="number">28.4</span></li>
  <li><span class="name">Dividend Yield</span><span class="number">1.5</span></li>
</ul>
<div class="company-info">
  <a href="/screen/raw/?sector=IT">IT Services</a>
</div>
<section id="profit-loss">
  <table>
    <thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
    <tbody>
      <tr><td>Sales</td><td>1,91,754</td><td>2,25,458</td><td>2,40,893</td></tr>
      <tr><td>Net Profit</td><td>38,327</td><td>42,147</td><td>45,908</td></tr>
      <tr><td>OPM %</td><td>25%</td><td>24%</td><td>-</td></tr>
    </tbody>
  </table>
</section>
<section id="balance-sheet">
  <table>
    <thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
    <tbody>
      <tr><td>Equity Capital</td><td>366</td><td>366</td><td>362</td></tr>
      <tr><td>Borrowings</td><td>7,818</td><td>7,688</td><td>8,021</td></tr>
      <tr><td>Total Assets</td><td>1,41,514</td><td>1,43,651</td><td>1,46,449</td></tr>
    </tbody>
  </table>
</section>
<section id="cash-flow">
  <table>
    <thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
    <tbody>
      <tr><td>Cash from Operating Activity</td><td>39,949</td><td>41,965</td><td>44,338</td></tr>
    </tbody>
  </table>
</section>
<section id="ratios">
  <table>
    <thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
    <tbody>
      <tr><td>ROE %</td><td>43</td><td>47</td><td>51</td></tr>
      <tr><td>ROCE %</td><td>55</td><td>59</td><td>64</td></tr>
    </tbody>
  </table>
</section>
</body></html>`

func newScreenerTestAdapter(t *testing.T, handler http.Handler) (*ScreenerAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := httputil.New(logger.NewNop()).DisableRetry()
	return NewScreenerAdapter(server.URL, client, logger.NewNop()), server
}

func TestScreenerFetchExtractsStatements(t *testing.T) {
	adapter, _ := newScreenerTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/company/TCS/consolidated/" {
			w.Write([]byte(screenerCompanyPage))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	record, err := adapter.Fetch(context.Background(), "TCS", 3)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Tata Consultancy Services Ltd", record.CompanyName)
	assert.Equal(t, "TCS", record.Ticker)
	assert.Equal(t, "screener.in", record.DataSource)
	assert.True(t, record.Usable())

	// Series come out oldest → newest
	assert.Equal(t, []string{"Mar 2022", "Mar 2023", "Mar 2024"}, record.Revenue.Years())
	assert.Equal(t, []float64{191754, 225458, 240893}, record.Revenue.Values())
	assert.Equal(t, []float64{38327, 42147, 45908}, record.NetIncome.Values())

	// Dash cells are "not reported", not zero
	assert.Equal(t, 2, record.OperatingMargin.Len())
	_, ok := record.OperatingMargin.Get("Mar 2024")
	assert.False(t, ok)

	assert.Equal(t, []float64{43, 47, 51}, record.ROE.Values())
	assert.Equal(t, []float64{55, 59, 64}, record.ROCE.Values())
	assert.Equal(t, []float64{39949, 41965, 44338}, record.OperatingCashFlow.Values())
	assert.Equal(t, []float64{7818, 7688, 8021}, record.TotalDebt.Values())

	assert.Equal(t, 1250000.0, record.MarketCap)
	assert.Equal(t, 28.4, record.PERatio)
	assert.Equal(t, 1.5, record.DividendYield)
	assert.Equal(t, "IT Services", record.Sector)
}

func TestScreenerFetchLimitsYears(t *testing.T) {
	adapter, _ := newScreenerTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(screenerCompanyPage))
	}))

	record, err := adapter.Fetch(context.Background(), "TCS", 2)

	require.NoError(t, err)
	// Rightmost (most recent) columns win when the table is wider than asked
	assert.Equal(t, []string{"Mar 2023", "Mar 2024"}, record.Revenue.Years())
}

func TestScreenerFetchFallsBackToStandalone(t *testing.T) {
	var paths []string
	adapter, _ := newScreenerTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/company/TCS/consolidated/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(screenerCompanyPage))
	}))

	record, err := adapter.Fetch(context.Background(), "TCS", 3)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{"/company/TCS/consolidated/", "/company/TCS/"}, paths)
	assert.True(t, record.Usable())
}

func TestScreenerFetchMissingCompany(t *testing.T) {
	adapter, _ := newScreenerTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	record, err := adapter.Fetch(context.Background(), "NOPE", 3)

	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestScreenerSearchParsesCompanyURLs(t *testing.T) {
	adapter, _ := newScreenerTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/company/search/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "tata", r.URL.Query().Get("q"))
		w.Write([]byte(`[
			{"name": "Tata Consultancy Services", "url": "/company/TCS/consolidated/"},
			{"name": "Tata Motors", "url": "/company/TATAMOTORS/"},
			{"name": "Broken", "url": "/notcompany/X/"}
		]`))
	}))

	matches, err := adapter.Search(context.Background(), "tata")

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "TCS", matches[0].Ticker)
	assert.Equal(t, "Tata Consultancy Services", matches[0].Name)
	assert.Equal(t, "TATAMOTORS", matches[1].Ticker)
}
