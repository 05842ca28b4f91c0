package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// dashboardHTML is a minimal self-contained operations page: it polls the
// stats and metrics-summary endpoints and renders per-tool usage.
const dashboardHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>LLeX 대시보드</title>
<style>
body { font-family: -apple-system, "Malgun Gothic", sans-serif; margin: 2rem; background: #f7f7f9; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; background: #fff; min-width: 32rem; }
th, td { border: 1px solid #ddd; padding: 0.5rem 0.9rem; text-align: left; }
th { background: #eef1f5; }
.summary { margin: 1rem 0; color: #444; }
</style>
</head>
<body>
<h1>LLeX 도구 사용 현황</h1>
<div class="summary" id="summary">불러오는 중...</div>
<table>
<thead><tr><th>도구</th><th>횟수</th><th>평균 점수</th><th>마지막 사용</th></tr></thead>
<tbody id="tools"></tbody>
</table>
<script>
async function refresh() {
  try {
    const [statsRes, sumRes] = await Promise.all([
      fetch('/api/history/stats', {credentials: 'include'}),
      fetch('/metrics/summary')
    ]);
    const stats = await statsRes.json();
    const sum = await sumRes.json();
    document.getElementById('summary').textContent =
      '가동 ' + Math.round(sum.uptime_seconds) + '초 / 요청 ' + sum.total_requests +
      '건 / 오류율 ' + (sum.error_rate * 100).toFixed(1) + '%';
    const body = document.getElementById('tools');
    body.innerHTML = '';
    for (const t of (stats.tools || [])) {
      const row = document.createElement('tr');
      row.innerHTML = '<td>' + t.tool + '</td><td>' + t.count + '</td><td>' +
        t.avg_score.toFixed(1) + '</td><td>' + t.last_used + '</td>';
      body.appendChild(row);
    }
  } catch (e) {
    document.getElementById('summary').textContent = '데이터를 불러오지 못했습니다';
  }
}
refresh();
setInterval(refresh, 10000);
</script>
</body>
</html>`

func dashboard(c echo.Context) error {
	return c.HTML(http.StatusOK, dashboardHTML)
}
